package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/relief/internal/domain/models"
)

// ErrVersionConflict indicates a center changed between read and write.
var ErrVersionConflict = errors.New("center was modified concurrently")

// CenterFilter narrows center listings. Nil bounds are open and both are inclusive.
type CenterFilter struct {
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NegotiationFilter narrows negotiation listings. Nil fields are ignored.
type NegotiationFilter struct {
	From     *time.Time
	To       *time.Time
	CenterID *primitive.ObjectID
}

// CenterRepository persists center documents.
type CenterRepository interface {
	// Insert stores a new center, assigning its ID. Fails with models.ErrDuplicateName
	// when the name is taken.
	Insert(ctx context.Context, center *models.Center) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Center, error)
	FindByName(ctx context.Context, name string) (*models.Center, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Center, error)
	List(ctx context.Context, filter CenterFilter) ([]models.Center, error)
	// Update replaces the center when its stored version matches center.Version, then
	// bumps the version. Fails with ErrVersionConflict otherwise.
	Update(ctx context.Context, center *models.Center) error
}

// NegotiationRepository persists the append-only exchange history.
type NegotiationRepository interface {
	Insert(ctx context.Context, negotiation *models.Negotiation) error
	// List returns matches ordered by creation time ascending.
	List(ctx context.Context, filter NegotiationFilter) ([]models.Negotiation, error)
}

// Store groups the repositories and scopes multi-document transactions.
type Store interface {
	Centers() CenterRepository
	Negotiations() NegotiationRepository
	// WithTransaction runs fn in a transaction. Repository calls made with the ctx passed
	// to fn join it; any error returned by fn rolls everything back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// RetryOnConflict runs fn up to attempts times while it fails with ErrVersionConflict.
func RetryOnConflict(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, ErrVersionConflict) {
			return err
		}
	}
	return err
}
