package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository"
)

// CenterRepository stores centers in the "centros" collection.
type CenterRepository struct {
	coll *mongo.Collection
}

var _ repository.CenterRepository = (*CenterRepository)(nil)

// Insert saves a new center document.
func (r *CenterRepository) Insert(ctx context.Context, center *models.Center) error {
	if center.ID.IsZero() {
		center.ID = primitive.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, center); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateName, center.Name)
		}
		return fmt.Errorf("failed to insert center: %w", err)
	}
	return nil
}

// FindByID loads a center by its ObjectID.
func (r *CenterRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Center, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByName loads a center by exact name.
func (r *CenterRepository) FindByName(ctx context.Context, name string) (*models.Center, error) {
	return r.findOne(ctx, bson.M{"nome": name})
}

func (r *CenterRepository) findOne(ctx context.Context, filter bson.M) (*models.Center, error) {
	var center models.Center
	if err := r.coll.FindOne(ctx, filter).Decode(&center); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("center: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find center: %w", err)
	}
	return &center, nil
}

// FindByIDs loads every center whose ID is listed. Missing IDs are skipped.
func (r *CenterRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Center, error) {
	if len(ids) == 0 {
		return []models.Center{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// List returns centers created within the filter bounds, oldest first.
func (r *CenterRepository) List(ctx context.Context, filter repository.CenterFilter) ([]models.Center, error) {
	query := bson.M{}
	if created := dateRange(filter.CreatedFrom, filter.CreatedTo); created != nil {
		query["createdAt"] = created
	}
	return r.find(ctx, query)
}

func (r *CenterRepository) find(ctx context.Context, query bson.M) ([]models.Center, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query centers: %w", err)
	}

	centers := []models.Center{}
	if err := cursor.All(ctx, &centers); err != nil {
		return nil, fmt.Errorf("failed to decode centers: %w", err)
	}
	return centers, nil
}

// Update replaces the document guarded by its version.
func (r *CenterRepository) Update(ctx context.Context, center *models.Center) error {
	expected := center.Version
	next := *center
	next.Version = expected + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": center.ID, "version": expected}, next)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", models.ErrDuplicateName, center.Name)
		}
		return fmt.Errorf("failed to update center: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("center %s: %w", center.ID.Hex(), repository.ErrVersionConflict)
	}

	center.Version = next.Version
	return nil
}
