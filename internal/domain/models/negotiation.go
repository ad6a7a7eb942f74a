package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Negotiation is the immutable record of a completed exchange between two centers.
type Negotiation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginID          primitive.ObjectID `bson:"centroOrigem" json:"centroOrigem"`
	DestinationID     primitive.ObjectID `bson:"centroDestino" json:"centroDestino"`
	FromOrigin        []ResourceAmount   `bson:"recursosOrigem" json:"recursosOrigem"`
	FromDestination   []ResourceAmount   `bson:"recursosDestino" json:"recursosDestino"`
	OriginPoints      int                `bson:"pontosOrigem" json:"pontosOrigem"`
	DestinationPoints int                `bson:"pontosDestino" json:"pontosDestino"`
	EmergencyOverride bool               `bson:"emergencia" json:"emergencia"`
	CreatedAt         time.Time          `bson:"dataCriacao" json:"dataCriacao"`
}

// Involves reports whether the center took part in the negotiation on either side.
func (n *Negotiation) Involves(centerID primitive.ObjectID) bool {
	return n.OriginID == centerID || n.DestinationID == centerID
}

// Clone copies the negotiation including its resource lists.
func (n Negotiation) Clone() Negotiation {
	n.FromOrigin = cloneAmounts(n.FromOrigin)
	n.FromDestination = cloneAmounts(n.FromDestination)
	return n
}

func cloneAmounts(items []ResourceAmount) []ResourceAmount {
	if items == nil {
		return nil
	}
	out := make([]ResourceAmount, len(items))
	copy(out, items)
	return out
}
