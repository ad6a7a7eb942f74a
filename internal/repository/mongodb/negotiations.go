package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/relief/internal/domain/models"
	"github.com/mamadbah2/relief/internal/repository"
)

// NegotiationRepository stores the exchange history in the "negociacoes" collection.
type NegotiationRepository struct {
	coll *mongo.Collection
}

var _ repository.NegotiationRepository = (*NegotiationRepository)(nil)

// Insert appends a negotiation record.
func (r *NegotiationRepository) Insert(ctx context.Context, negotiation *models.Negotiation) error {
	if negotiation.ID.IsZero() {
		negotiation.ID = primitive.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, negotiation); err != nil {
		return fmt.Errorf("failed to insert negotiation: %w", err)
	}
	return nil
}

// List returns negotiations matching the filter, oldest first.
func (r *NegotiationRepository) List(ctx context.Context, filter repository.NegotiationFilter) ([]models.Negotiation, error) {
	query := bson.M{}
	if created := dateRange(filter.From, filter.To); created != nil {
		query["dataCriacao"] = created
	}
	if filter.CenterID != nil {
		query["$or"] = bson.A{
			bson.M{"centroOrigem": *filter.CenterID},
			bson.M{"centroDestino": *filter.CenterID},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "dataCriacao", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query negotiations: %w", err)
	}

	negotiations := []models.Negotiation{}
	if err := cursor.All(ctx, &negotiations); err != nil {
		return nil, fmt.Errorf("failed to decode negotiations: %w", err)
	}
	return negotiations, nil
}

func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}

	bounds := bson.M{}
	if from != nil {
		bounds["$gte"] = *from
	}
	if to != nil {
		bounds["$lte"] = *to
	}
	return bounds
}
