package models

import "fmt"

// Resource is a single ledger entry of a center.
type Resource struct {
	Type     string `bson:"tipo" json:"tipo"`
	Quantity int    `bson:"quantidade" json:"quantidade"`
	Points   int    `bson:"pontos" json:"pontos"`
}

// ResourceAmount is a typed quantity moved during an exchange.
type ResourceAmount struct {
	Type     string `bson:"tipo" json:"tipo" binding:"required"`
	Quantity int    `bson:"quantidade" json:"quantidade" binding:"gt=0"`
}

// MaxQuantity bounds every ledger entry, occupancy and capacity figure so point and
// occupancy arithmetic stays within int range.
const MaxQuantity = 1_000_000_000

// Ledger is the ordered inventory of a center, unique by resource type.
type Ledger []Resource

// Validate ensures types are present, unique and quantities are within [0, MaxQuantity].
func (l Ledger) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for _, r := range l {
		if r.Type == "" {
			return fmt.Errorf("%w: resource tipo is required", ErrValidation)
		}
		if r.Quantity < 0 {
			return fmt.Errorf("%w: resource %s has negative quantidade", ErrValidation, r.Type)
		}
		if r.Quantity > MaxQuantity {
			return fmt.Errorf("%w: resource %s exceeds %d units", ErrValidation, r.Type, MaxQuantity)
		}
		if _, dup := seen[r.Type]; dup {
			return fmt.Errorf("%w: resource %s listed more than once", ErrValidation, r.Type)
		}
		seen[r.Type] = struct{}{}
	}
	return nil
}

// Clone copies the ledger.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}

// Find returns the entry index for a type or -1.
func (l Ledger) Find(resourceType string) int {
	for i, r := range l {
		if r.Type == resourceType {
			return i
		}
	}
	return -1
}

// Quantity returns how much of a type the ledger holds.
func (l Ledger) Quantity(resourceType string) int {
	if i := l.Find(resourceType); i >= 0 {
		return l[i].Quantity
	}
	return 0
}

// Filter returns the entries of the given type, or every entry when resourceType is empty.
func (l Ledger) Filter(resourceType string) Ledger {
	out := Ledger{}
	for _, r := range l {
		if resourceType == "" || r.Type == resourceType {
			out = append(out, r)
		}
	}
	return out
}

// Subtract removes the amounts in place. It fails without touching the ledger when any
// type is missing or short.
func (l *Ledger) Subtract(items []ResourceAmount) error {
	items = MergeAmounts(items)
	for _, item := range items {
		if have := l.Quantity(item.Type); have < item.Quantity {
			return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientResource, item.Type, have, item.Quantity)
		}
	}

	for _, item := range items {
		i := l.Find(item.Type)
		(*l)[i].Quantity -= item.Quantity
	}
	return nil
}

// Add credits the amounts, appending entries for new types valued with the table. It
// fails without touching the ledger when any entry would exceed MaxQuantity.
func (l *Ledger) Add(items []ResourceAmount, table PointTable) error {
	items = MergeAmounts(items)
	for _, item := range items {
		if item.Quantity < 0 {
			return fmt.Errorf("%w: %s has negative quantidade", ErrValidation, item.Type)
		}
		if have := l.Quantity(item.Type); item.Quantity > MaxQuantity-have {
			return fmt.Errorf("%w: %s would exceed %d units", ErrValidation, item.Type, MaxQuantity)
		}
	}

	for _, item := range items {
		if i := l.Find(item.Type); i >= 0 {
			(*l)[i].Quantity += item.Quantity
			continue
		}
		*l = append(*l, Resource{Type: item.Type, Quantity: item.Quantity, Points: table.Points(item.Type)})
	}
	return nil
}

// MergeAmounts collapses repeated types, keeping first-seen order.
func MergeAmounts(items []ResourceAmount) []ResourceAmount {
	out := make([]ResourceAmount, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.Type]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.Type] = len(out)
		out = append(out, item)
	}
	return out
}
