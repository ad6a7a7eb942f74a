package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Known resource types.
const (
	ResourceDoctor          = "medico"
	ResourceVolunteer       = "voluntario"
	ResourceMedicalKit      = "kitSuprimentosMedicos"
	ResourceTransport       = "veiculoTransporte"
	ResourceBasicFoodBasket = "cestaBasica"
)

// PointTable maps a resource type to the points it is worth in an exchange.
type PointTable map[string]int

// DefaultPointTable returns the standard valuation used when no override is configured.
func DefaultPointTable() PointTable {
	return PointTable{
		ResourceDoctor:          4,
		ResourceVolunteer:       3,
		ResourceMedicalKit:      7,
		ResourceTransport:       5,
		ResourceBasicFoodBasket: 2,
	}
}

// Points returns the value of a single unit. Unknown types are worth nothing.
func (t PointTable) Points(resourceType string) int {
	return t[resourceType]
}

// Total sums points*quantity over the provided items. It fails with ErrValidation
// instead of wrapping around int range.
func (t PointTable) Total(items []ResourceAmount) (int, error) {
	total := 0
	for _, item := range items {
		points := t.Points(item.Type)
		if points < 0 || item.Quantity < 0 {
			return 0, fmt.Errorf("%w: %s cannot be valued", ErrValidation, item.Type)
		}
		if points != 0 && item.Quantity > math.MaxInt/points {
			return 0, fmt.Errorf("%w: points for %s overflow", ErrValidation, item.Type)
		}
		value := points * item.Quantity
		if total > math.MaxInt-value {
			return 0, fmt.Errorf("%w: exchange points overflow", ErrValidation)
		}
		total += value
	}
	return total, nil
}

// String renders the table as "type=points" pairs sorted by type.
func (t PointTable) String() string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%d", k, t[k]))
	}
	return strings.Join(pairs, ",")
}

// ParsePointTable reads a "type=points,type=points" list.
func ParsePointTable(raw string) (PointTable, error) {
	table := PointTable{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid point entry %q", pair)
		}

		points, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || points < 0 {
			return nil, fmt.Errorf("invalid points for %s: %q", name, value)
		}
		table[name] = points
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("point table is empty")
	}
	return table, nil
}
