package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerSubtract(t *testing.T) {
	ledger := Ledger{{Type: ResourceVolunteer, Quantity: 5, Points: 3}}

	require.NoError(t, ledger.Subtract([]ResourceAmount{{Type: ResourceVolunteer, Quantity: 2}}))
	assert.Equal(t, 3, ledger.Quantity(ResourceVolunteer))
}

func TestLedgerSubtract_InsufficientLeavesLedgerUntouched(t *testing.T) {
	ledger := Ledger{
		{Type: ResourceVolunteer, Quantity: 5},
		{Type: ResourceDoctor, Quantity: 1},
	}

	err := ledger.Subtract([]ResourceAmount{
		{Type: ResourceVolunteer, Quantity: 1},
		{Type: ResourceDoctor, Quantity: 2},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientResource))
	assert.Equal(t, 5, ledger.Quantity(ResourceVolunteer))
	assert.Equal(t, 1, ledger.Quantity(ResourceDoctor))
}

func TestLedgerSubtract_MissingType(t *testing.T) {
	ledger := Ledger{}

	err := ledger.Subtract([]ResourceAmount{{Type: ResourceMedicalKit, Quantity: 1}})
	assert.ErrorIs(t, err, ErrInsufficientResource)
}

func TestLedgerSubtract_RepeatedTypesAreSummed(t *testing.T) {
	ledger := Ledger{{Type: ResourceVolunteer, Quantity: 3}}

	err := ledger.Subtract([]ResourceAmount{
		{Type: ResourceVolunteer, Quantity: 2},
		{Type: ResourceVolunteer, Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrInsufficientResource)
	assert.Equal(t, 3, ledger.Quantity(ResourceVolunteer))
}

func TestLedgerAdd(t *testing.T) {
	ledger := Ledger{{Type: ResourceVolunteer, Quantity: 1, Points: 3}}

	require.NoError(t, ledger.Add([]ResourceAmount{
		{Type: ResourceVolunteer, Quantity: 2},
		{Type: ResourceBasicFoodBasket, Quantity: 4},
	}, DefaultPointTable()))

	require.Len(t, ledger, 2)
	assert.Equal(t, 3, ledger.Quantity(ResourceVolunteer))
	assert.Equal(t, Resource{Type: ResourceBasicFoodBasket, Quantity: 4, Points: 2}, ledger[1])
}

func TestLedgerAdd_UpperBound(t *testing.T) {
	ledger := Ledger{{Type: ResourceDoctor, Quantity: MaxQuantity - 1}}

	require.NoError(t, ledger.Add([]ResourceAmount{{Type: ResourceDoctor, Quantity: 1}}, DefaultPointTable()))
	assert.Equal(t, MaxQuantity, ledger.Quantity(ResourceDoctor))

	err := ledger.Add([]ResourceAmount{{Type: ResourceDoctor, Quantity: 1}}, DefaultPointTable())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, MaxQuantity, ledger.Quantity(ResourceDoctor))
}

func TestLedgerAdd_NoWrapAround(t *testing.T) {
	ledger := Ledger{
		{Type: ResourceVolunteer, Quantity: 1},
		{Type: ResourceDoctor, Quantity: math.MaxInt},
	}

	err := ledger.Add([]ResourceAmount{
		{Type: ResourceVolunteer, Quantity: 1},
		{Type: ResourceDoctor, Quantity: 1},
	}, DefaultPointTable())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, ledger.Quantity(ResourceVolunteer), "ledger untouched on failure")
	assert.Equal(t, math.MaxInt, ledger.Quantity(ResourceDoctor))

	empty := Ledger{}
	err = empty.Add([]ResourceAmount{{Type: ResourceMedicalKit, Quantity: math.MaxInt}}, DefaultPointTable())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, empty)
}

func TestLedgerValidate(t *testing.T) {
	assert.NoError(t, Ledger{{Type: "a", Quantity: 0}, {Type: "b", Quantity: 1}}.Validate())
	assert.ErrorIs(t, Ledger{{Type: "", Quantity: 1}}.Validate(), ErrValidation)
	assert.ErrorIs(t, Ledger{{Type: "a", Quantity: -1}}.Validate(), ErrValidation)
	assert.ErrorIs(t, Ledger{{Type: "a"}, {Type: "a"}}.Validate(), ErrValidation)
	assert.NoError(t, Ledger{{Type: "a", Quantity: MaxQuantity}}.Validate())
	assert.ErrorIs(t, Ledger{{Type: "a", Quantity: MaxQuantity + 1}}.Validate(), ErrValidation)
}

func TestLedgerFilter(t *testing.T) {
	ledger := Ledger{{Type: "a", Quantity: 1}, {Type: "b", Quantity: 2}}

	assert.Len(t, ledger.Filter(""), 2)
	assert.Equal(t, Ledger{{Type: "b", Quantity: 2}}, ledger.Filter("b"))
	assert.Empty(t, ledger.Filter("c"))
}

func TestLedgerClone_IsIndependent(t *testing.T) {
	ledger := Ledger{{Type: "a", Quantity: 1}}
	clone := ledger.Clone()
	clone[0].Quantity = 9

	assert.Equal(t, 1, ledger[0].Quantity)
}

func TestMergeAmounts(t *testing.T) {
	merged := MergeAmounts([]ResourceAmount{
		{Type: "b", Quantity: 1},
		{Type: "a", Quantity: 2},
		{Type: "b", Quantity: 3},
	})

	assert.Equal(t, []ResourceAmount{{Type: "b", Quantity: 4}, {Type: "a", Quantity: 2}}, merged)
}

func TestCenterAtOrAbove(t *testing.T) {
	c := Center{CapacityMax: 10, Occupancy: 9}
	assert.True(t, c.AtOrAbove(90))

	c.Occupancy = 8
	assert.False(t, c.AtOrAbove(90))

	c = Center{CapacityMax: 7, Occupancy: 6}
	assert.False(t, c.AtOrAbove(90)) // 85.7%
}

func TestCenterValidate(t *testing.T) {
	valid := Center{Name: "Centro A", Address: "Rua 1", Location: "Recife", CapacityMax: 10}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(c *Center){
		"empty name":        func(c *Center) { c.Name = "  " },
		"empty address":     func(c *Center) { c.Address = "" },
		"empty location":    func(c *Center) { c.Location = "" },
		"zero capacity":     func(c *Center) { c.CapacityMax = 0 },
		"negative occupant": func(c *Center) { c.Occupancy = -1 },
		"bad ledger":        func(c *Center) { c.Resources = Ledger{{Type: "x", Quantity: -2}} },
		"huge capacity":     func(c *Center) { c.CapacityMax = MaxQuantity + 1 },
		"huge occupancy":    func(c *Center) { c.Occupancy = math.MaxInt },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrValidation)
		})
	}
}
