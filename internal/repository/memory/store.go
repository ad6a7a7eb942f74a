package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository"
)

type txKey struct{}

// Store is an in-process repository.Store. Transactions hold the store lock for their
// whole duration and restore a snapshot when fn fails.
type Store struct {
	mu           sync.RWMutex
	centers      map[primitive.ObjectID]models.Center
	negotiations []models.Negotiation
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		centers:      make(map[primitive.ObjectID]models.Center),
		negotiations: []models.Negotiation{},
	}
}

// Centers returns the center repository view.
func (s *Store) Centers() repository.CenterRepository { return &CenterRepository{store: s} }

// Negotiations returns the negotiation repository view.
func (s *Store) Negotiations() repository.NegotiationRepository {
	return &NegotiationRepository{store: s}
}

// WithTransaction serializes fn against every other store access.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	centers := make(map[primitive.ObjectID]models.Center, len(s.centers))
	for id, c := range s.centers {
		centers[id] = c.Clone()
	}
	negotiations := len(s.negotiations)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.centers = centers
		s.negotiations = s.negotiations[:negotiations]
		return err
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (s *Store) read(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) write(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// CenterRepository is the in-memory center collection.
type CenterRepository struct {
	store *Store
}

var _ repository.CenterRepository = (*CenterRepository)(nil)

// Insert stores a copy of the center, enforcing unique names.
func (r *CenterRepository) Insert(ctx context.Context, center *models.Center) error {
	defer r.store.write(ctx)()

	for _, existing := range r.store.centers {
		if existing.Name == center.Name {
			return fmt.Errorf("%w: %s", models.ErrDuplicateName, center.Name)
		}
	}

	if center.ID.IsZero() {
		center.ID = primitive.NewObjectID()
	}
	r.store.centers[center.ID] = center.Clone()
	return nil
}

// FindByID returns a copy of the stored center.
func (r *CenterRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Center, error) {
	defer r.store.read(ctx)()

	center, ok := r.store.centers[id]
	if !ok {
		return nil, fmt.Errorf("center: %w", models.ErrNotFound)
	}
	out := center.Clone()
	return &out, nil
}

// FindByName returns the center with exactly this name.
func (r *CenterRepository) FindByName(ctx context.Context, name string) (*models.Center, error) {
	defer r.store.read(ctx)()

	for _, center := range r.store.centers {
		if center.Name == name {
			out := center.Clone()
			return &out, nil
		}
	}
	return nil, fmt.Errorf("center: %w", models.ErrNotFound)
}

// FindByIDs returns the listed centers that exist, oldest first.
func (r *CenterRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Center, error) {
	defer r.store.read(ctx)()

	out := []models.Center{}
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if center, ok := r.store.centers[id]; ok {
			out = append(out, center.Clone())
		}
	}
	sortCenters(out)
	return out, nil
}

// List returns centers created within the bounds, oldest first.
func (r *CenterRepository) List(ctx context.Context, filter repository.CenterFilter) ([]models.Center, error) {
	defer r.store.read(ctx)()

	out := []models.Center{}
	for _, center := range r.store.centers {
		if filter.CreatedFrom != nil && center.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && center.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, center.Clone())
	}
	sortCenters(out)
	return out, nil
}

// Update replaces the stored center when versions match.
func (r *CenterRepository) Update(ctx context.Context, center *models.Center) error {
	defer r.store.write(ctx)()

	stored, ok := r.store.centers[center.ID]
	if !ok || stored.Version != center.Version {
		return fmt.Errorf("center %s: %w", center.ID.Hex(), repository.ErrVersionConflict)
	}
	for id, existing := range r.store.centers {
		if id != center.ID && existing.Name == center.Name {
			return fmt.Errorf("%w: %s", models.ErrDuplicateName, center.Name)
		}
	}

	center.Version++
	r.store.centers[center.ID] = center.Clone()
	return nil
}

func sortCenters(centers []models.Center) {
	sort.SliceStable(centers, func(i, j int) bool {
		if centers[i].CreatedAt.Equal(centers[j].CreatedAt) {
			return centers[i].ID.Hex() < centers[j].ID.Hex()
		}
		return centers[i].CreatedAt.Before(centers[j].CreatedAt)
	})
}

// NegotiationRepository is the in-memory negotiation history.
type NegotiationRepository struct {
	store *Store
}

var _ repository.NegotiationRepository = (*NegotiationRepository)(nil)

// Insert appends a copy of the negotiation.
func (r *NegotiationRepository) Insert(ctx context.Context, negotiation *models.Negotiation) error {
	defer r.store.write(ctx)()

	if negotiation.ID.IsZero() {
		negotiation.ID = primitive.NewObjectID()
	}
	r.store.negotiations = append(r.store.negotiations, negotiation.Clone())
	return nil
}

// List returns matching negotiations ordered by creation time ascending.
func (r *NegotiationRepository) List(ctx context.Context, filter repository.NegotiationFilter) ([]models.Negotiation, error) {
	defer r.store.read(ctx)()

	out := []models.Negotiation{}
	for _, n := range r.store.negotiations {
		if filter.From != nil && n.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && n.CreatedAt.After(*filter.To) {
			continue
		}
		if filter.CenterID != nil && !n.Involves(*filter.CenterID) {
			continue
		}
		out = append(out, n.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
