package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OccupancyReport aggregates capacity and occupancy over a set of centers.
type OccupancyReport struct {
	TotalCapacity   int               `json:"totalCapacidade"`
	TotalOccupied   int               `json:"totalAtual"`
	OccupancyRate   float64           `json:"percentualOcupacao"`
	CriticalCenters []CenterOccupancy `json:"centrosCriticos"`
	GeneratedAt     time.Time         `json:"geradoEm"`
}

// CenterOccupancy is a per-center line of the occupancy report.
type CenterOccupancy struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"nome"`
	CapacityMax int                `json:"capacidadeMaxima"`
	Occupancy   int                `json:"quantidadeAtual"`
	Rate        float64            `json:"percentual"`
}

// ResourceReport lists the resources held by one center.
type ResourceReport struct {
	Center    string `json:"centro"`
	Resources Ledger `json:"recursos"`
}

// ResourceAverage is the mean quantity of one resource type across centers.
type ResourceAverage struct {
	Type    string  `json:"tipo"`
	Average float64 `json:"quantidadeMedia"`
	Total   int     `json:"quantidadeTotal"`
	Centers int     `json:"centros"`
}

// ExchangeRecord is a negotiation with both center names resolved.
type ExchangeRecord struct {
	ID                primitive.ObjectID `json:"id"`
	OriginID          primitive.ObjectID `json:"centroOrigemId"`
	Origin            string             `json:"centroOrigem"`
	DestinationID     primitive.ObjectID `json:"centroDestinoId"`
	Destination       string             `json:"centroDestino"`
	FromOrigin        []ResourceAmount   `json:"recursosOrigem"`
	FromDestination   []ResourceAmount   `json:"recursosDestino"`
	OriginPoints      int                `json:"pontosOrigem"`
	DestinationPoints int                `json:"pontosDestino"`
	EmergencyOverride bool               `json:"emergencia"`
	CreatedAt         time.Time          `json:"data"`
}
