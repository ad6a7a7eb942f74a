package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Center is a community relief facility tracked by the network.
type Center struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"nome" json:"nome"`
	Address     string             `bson:"endereco" json:"endereco"`
	Location    string             `bson:"localizacao" json:"localizacao"`
	CapacityMax int                `bson:"capacidadeMaxima" json:"capacidadeMaxima"`
	Occupancy   int                `bson:"quantidadeAtual" json:"quantidadeAtual"`
	Resources   Ledger             `bson:"recursos" json:"recursos"`
	Version     int64              `bson:"version" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the structural invariants of a center before it is stored.
func (c *Center) Validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: nome is required", ErrValidation)
	case strings.TrimSpace(c.Address) == "":
		return fmt.Errorf("%w: endereco is required", ErrValidation)
	case strings.TrimSpace(c.Location) == "":
		return fmt.Errorf("%w: localizacao is required", ErrValidation)
	case c.CapacityMax <= 0:
		return fmt.Errorf("%w: capacidadeMaxima must be greater than 0", ErrValidation)
	case c.CapacityMax > MaxQuantity:
		return fmt.Errorf("%w: capacidadeMaxima exceeds %d", ErrValidation, MaxQuantity)
	case c.Occupancy < 0:
		return fmt.Errorf("%w: quantidadeAtual must not be negative", ErrValidation)
	case c.Occupancy > MaxQuantity:
		return fmt.Errorf("%w: quantidadeAtual exceeds %d", ErrValidation, MaxQuantity)
	}
	return c.Resources.Validate()
}

// AtOrAbove reports whether occupancy has reached the given percentage of capacity.
func (c *Center) AtOrAbove(percent int) bool {
	return c.Occupancy*100 >= c.CapacityMax*percent
}

// OccupancyRate returns occupancy as a percentage of capacity.
func (c *Center) OccupancyRate() float64 {
	if c.CapacityMax == 0 {
		return 0
	}
	return float64(c.Occupancy) / float64(c.CapacityMax) * 100
}

// Clone returns a deep copy so ledger mutations do not leak into the original.
func (c Center) Clone() Center {
	c.Resources = c.Resources.Clone()
	return c
}

// CapacityBreach describes a center whose occupancy reached its capacity.
type CapacityBreach struct {
	CenterID    primitive.ObjectID `json:"centroId"`
	CenterName  string             `json:"nome"`
	Occupancy   int                `json:"quantidadeAtual"`
	CapacityMax int                `json:"capacidadeMaxima"`
	Delta       int                `json:"delta"`
	DetectedAt  time.Time          `json:"detectadoEm"`
}
