package centers

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository/memory"
)

type recordingNotifier struct {
	mu       sync.Mutex
	breaches []models.CapacityBreach
	err      error
}

func (n *recordingNotifier) NotifyCapacityBreach(_ context.Context, breach models.CapacityBreach) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.breaches = append(n.breaches, breach)
	return n.err
}

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	return NewService(memory.NewStore(), models.DefaultPointTable(), notifier, nil), notifier
}

func validInput(name string) RegisterInput {
	return RegisterInput{
		Name:        name,
		Address:     "Rua das Flores, 10",
		Location:    "Recife",
		CapacityMax: 10,
		Occupancy:   2,
		Resources: models.Ledger{
			{Type: models.ResourceVolunteer, Quantity: 5},
			{Type: "agua", Quantity: 20, Points: 1},
		},
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	center, err := svc.Register(context.Background(), validInput("Centro Norte"))
	require.NoError(t, err)

	assert.False(t, center.ID.IsZero())
	assert.Equal(t, "Centro Norte", center.Name)
	assert.False(t, center.CreatedAt.IsZero())
	require.Len(t, center.Resources, 2)
	assert.Equal(t, 3, center.Resources[0].Points, "points filled from the table")
	assert.Equal(t, 1, center.Resources[1].Points, "explicit points kept")

	found, err := svc.FindByID(context.Background(), center.ID)
	require.NoError(t, err)
	assert.Equal(t, center.Name, found.Name)
}

func TestRegister_DuplicateName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput("Centro Norte"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validInput("Centro Norte"))
	assert.ErrorIs(t, err, models.ErrDuplicateName)
}

func TestRegister_NameMatchIsExact(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), validInput("Centro Norte"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validInput("centro norte"))
	assert.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	in := validInput("X")
	in.CapacityMax = 0
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrValidation)

	in = validInput("Y")
	in.Resources = models.Ledger{{Type: "agua", Quantity: 1}, {Type: "agua", Quantity: 2}}
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFindByID_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FindByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdjustOccupancy_NotFound(t *testing.T) {
	svc, notifier := newTestService(t)

	_, err := svc.AdjustOccupancy(context.Background(), primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, notifier.breaches)
}

func TestAdjustOccupancy_AddsDelta(t *testing.T) {
	svc, notifier := newTestService(t)
	center, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)

	updated, err := svc.AdjustOccupancy(context.Background(), center.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Occupancy)

	updated, err = svc.AdjustOccupancy(context.Background(), center.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Occupancy)

	svc.Wait()
	assert.Empty(t, notifier.breaches, "no breach below capacity")
}

func TestAdjustOccupancy_BreachCommitsAndNotifies(t *testing.T) {
	svc, notifier := newTestService(t)
	center, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)

	updated, err := svc.AdjustOccupancy(context.Background(), center.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Occupancy)

	svc.Wait()
	require.Len(t, notifier.breaches, 1)
	assert.Equal(t, center.ID, notifier.breaches[0].CenterID)
	assert.Equal(t, 10, notifier.breaches[0].Occupancy)
	assert.Equal(t, 8, notifier.breaches[0].Delta)

	updated, err = svc.AdjustOccupancy(context.Background(), center.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, updated.Occupancy, "over capacity still commits")
	svc.Wait()
	assert.Len(t, notifier.breaches, 2)

	stored, err := svc.FindByID(context.Background(), center.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Occupancy)
}

func TestAdjustOccupancy_NotifierFailureDoesNotFail(t *testing.T) {
	svc, notifier := newTestService(t)
	notifier.err = errors.New("webhook down")
	center, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)

	updated, err := svc.AdjustOccupancy(context.Background(), center.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 22, updated.Occupancy)

	svc.Wait()
	assert.Len(t, notifier.breaches, 1)
}

type blockingNotifier struct {
	release chan struct{}
	ctxErr  chan error
}

func (n *blockingNotifier) NotifyCapacityBreach(ctx context.Context, _ models.CapacityBreach) error {
	<-n.release
	n.ctxErr <- ctx.Err()
	return nil
}

func TestAdjustOccupancy_BreachDoesNotBlockCaller(t *testing.T) {
	notifier := &blockingNotifier{release: make(chan struct{}), ctxErr: make(chan error, 1)}
	svc := NewService(memory.NewStore(), models.DefaultPointTable(), notifier, nil)
	center, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	updated, err := svc.AdjustOccupancy(ctx, center.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Occupancy)

	// The request is over before the notifier is allowed to run.
	cancel()
	close(notifier.release)
	svc.Wait()

	assert.NoError(t, <-notifier.ctxErr)
}

func TestAdjustOccupancy_Bounds(t *testing.T) {
	svc, _ := newTestService(t)
	center, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)

	_, err = svc.AdjustOccupancy(context.Background(), center.ID, math.MaxInt)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.AdjustOccupancy(context.Background(), center.ID, math.MinInt)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.AdjustOccupancy(context.Background(), center.ID, models.MaxQuantity)
	assert.ErrorIs(t, err, models.ErrValidation)

	updated, err := svc.AdjustOccupancy(context.Background(), center.ID, models.MaxQuantity-2)
	require.NoError(t, err)
	assert.Equal(t, models.MaxQuantity, updated.Occupancy)
	svc.Wait()
}

func TestRegister_RejectsOversizedFigures(t *testing.T) {
	svc, _ := newTestService(t)

	in := validInput("A")
	in.Resources = models.Ledger{{Type: models.ResourceDoctor, Quantity: math.MaxInt}}
	_, err := svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrValidation)

	in = validInput("B")
	in.CapacityMax = models.MaxQuantity + 1
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAdjustOccupancy_RejectsNegativeResult(t *testing.T) {
	svc, _ := newTestService(t)
	center, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)

	_, err = svc.AdjustOccupancy(context.Background(), center.ID, -3)
	assert.ErrorIs(t, err, models.ErrValidation)

	stored, err := svc.FindByID(context.Background(), center.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Occupancy)
}

func TestAdjustOccupancy_ConcurrentDeltasAllApply(t *testing.T) {
	svc, _ := newTestService(t)
	in := validInput("A")
	in.CapacityMax = 1000
	in.Occupancy = 0
	center, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AdjustOccupancy(context.Background(), center.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.FindByID(context.Background(), center.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Occupancy)
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(context.Background(), validInput("A"))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), validInput("B"))
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
