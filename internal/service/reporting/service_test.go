package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository/memory"
)

var generatedAt = time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 9, 0, 0, 0, time.UTC)
}

func newTestService() (*Service, *memory.Store) {
	store := memory.NewStore()
	svc := NewService(store, nil)
	svc.now = func() time.Time { return generatedAt }
	return svc, store
}

func seedCenter(t *testing.T, store *memory.Store, name string, occupancy, capacity int, createdAt time.Time, ledger models.Ledger) *models.Center {
	t.Helper()
	c := &models.Center{
		Name:        name,
		Address:     "Rua " + name,
		Location:    "Porto Alegre",
		CapacityMax: capacity,
		Occupancy:   occupancy,
		Resources:   ledger,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, store.Centers().Insert(context.Background(), c))
	return c
}

func TestOccupancyReport_Totals(t *testing.T) {
	svc, store := newTestService()
	seedCenter(t, store, "A", 5, 10, day(1), nil)
	seedCenter(t, store, "B", 19, 20, day(2), nil)
	seedCenter(t, store, "C", 0, 30, day(3), nil)

	report, err := svc.OccupancyReport(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 60, report.TotalCapacity)
	assert.Equal(t, 24, report.TotalOccupied)
	assert.Equal(t, 40.0, report.OccupancyRate)
	assert.Equal(t, generatedAt, report.GeneratedAt)
	require.Len(t, report.CriticalCenters, 1)
	assert.Equal(t, "B", report.CriticalCenters[0].Name)
	assert.Equal(t, 95.0, report.CriticalCenters[0].Rate)
}

func TestOccupancyReport_DateBounds(t *testing.T) {
	svc, store := newTestService()
	seedCenter(t, store, "A", 5, 10, day(1), nil)
	seedCenter(t, store, "B", 10, 20, day(2), nil)
	seedCenter(t, store, "C", 3, 30, day(3), nil)

	from, to := day(2), day(3)
	report, err := svc.OccupancyReport(context.Background(), &from, &to)
	require.NoError(t, err)
	assert.Equal(t, 50, report.TotalCapacity)
	assert.Equal(t, 13, report.TotalOccupied)

	onlyFrom := day(3)
	report, err = svc.OccupancyReport(context.Background(), &onlyFrom, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, report.TotalCapacity)
}

func TestOccupancyReport_Empty(t *testing.T) {
	svc, _ := newTestService()

	report, err := svc.OccupancyReport(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, report.TotalCapacity)
	assert.Zero(t, report.TotalOccupied)
	assert.Zero(t, report.OccupancyRate)
	assert.NotNil(t, report.CriticalCenters)
}

func TestResourceReport(t *testing.T) {
	svc, store := newTestService()
	c := seedCenter(t, store, "A", 1, 10, day(1), models.Ledger{
		{Type: models.ResourceDoctor, Quantity: 2, Points: 4},
		{Type: models.ResourceBasicFoodBasket, Quantity: 7, Points: 2},
	})

	all, err := svc.ResourceReport(context.Background(), c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "A", all.Center)
	assert.Len(t, all.Resources, 2)

	filtered, err := svc.ResourceReport(context.Background(), c.ID, models.ResourceBasicFoodBasket)
	require.NoError(t, err)
	assert.Equal(t, models.Ledger{{Type: models.ResourceBasicFoodBasket, Quantity: 7, Points: 2}}, filtered.Resources)

	unknown, err := svc.ResourceReport(context.Background(), c.ID, "lona")
	require.NoError(t, err)
	assert.Empty(t, unknown.Resources)

	_, err = svc.ResourceReport(context.Background(), primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAverageResourceReport(t *testing.T) {
	svc, store := newTestService()
	seedCenter(t, store, "A", 1, 10, day(1), models.Ledger{
		{Type: models.ResourceDoctor, Quantity: 3},
		{Type: models.ResourceVolunteer, Quantity: 10},
	})
	seedCenter(t, store, "B", 1, 10, day(2), models.Ledger{
		{Type: models.ResourceDoctor, Quantity: 1},
	})
	seedCenter(t, store, "C", 1, 10, day(3), models.Ledger{})

	averages, err := svc.AverageResourceReport(context.Background())
	require.NoError(t, err)
	require.Len(t, averages, 2)

	assert.Equal(t, models.ResourceAverage{Type: models.ResourceDoctor, Average: 1.33, Total: 4, Centers: 3}, averages[0])
	assert.Equal(t, models.ResourceAverage{Type: models.ResourceVolunteer, Average: 3.33, Total: 10, Centers: 3}, averages[1])
}

func TestAverageResourceReport_NoCenters(t *testing.T) {
	svc, _ := newTestService()

	averages, err := svc.AverageResourceReport(context.Background())
	require.NoError(t, err)
	assert.Empty(t, averages)
}

func TestExchangeHistory(t *testing.T) {
	svc, store := newTestService()
	a := seedCenter(t, store, "A", 1, 10, day(1), nil)
	b := seedCenter(t, store, "B", 1, 10, day(1), nil)
	c := seedCenter(t, store, "C", 1, 10, day(1), nil)

	ctx := context.Background()
	for _, n := range []models.Negotiation{
		{OriginID: b.ID, DestinationID: c.ID, CreatedAt: day(4)},
		{OriginID: a.ID, DestinationID: b.ID, CreatedAt: day(2), EmergencyOverride: true, OriginPoints: 6, DestinationPoints: 4},
		{OriginID: c.ID, DestinationID: a.ID, CreatedAt: day(3)},
	} {
		n := n
		require.NoError(t, store.Negotiations().Insert(ctx, &n))
	}

	all, err := svc.ExchangeHistory(ctx, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].Origin)
	assert.Equal(t, "B", all[0].Destination)
	assert.True(t, all[0].EmergencyOverride)
	assert.Equal(t, 6, all[0].OriginPoints)
	assert.Equal(t, 4, all[0].DestinationPoints)
	assert.Equal(t, "C", all[1].Origin)
	assert.Equal(t, "B", all[2].Origin)

	withA, err := svc.ExchangeHistory(ctx, nil, nil, &a.ID)
	require.NoError(t, err)
	require.Len(t, withA, 2)
	assert.True(t, withA[0].CreatedAt.Equal(day(2)))
	assert.True(t, withA[1].CreatedAt.Equal(day(3)))

	from, to := day(3), day(4)
	ranged, err := svc.ExchangeHistory(ctx, &from, &to, &b.ID)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "C", ranged[0].Destination)
}

func TestFormatDigest(t *testing.T) {
	empty := &models.OccupancyReport{GeneratedAt: generatedAt}
	assert.Equal(t, "Ocupação (2024-06-10): nenhum centro cadastrado.", FormatDigest(empty))

	report := &models.OccupancyReport{
		TotalCapacity: 30,
		TotalOccupied: 24,
		OccupancyRate: 80,
		CriticalCenters: []models.CenterOccupancy{
			{Name: "B", Rate: 95},
		},
		GeneratedAt: generatedAt,
	}
	assert.Equal(t,
		"Ocupação (2024-06-10): 24 de 30 vagas ocupadas (80.00%). Centros críticos: B 95%.",
		FormatDigest(report))
}
