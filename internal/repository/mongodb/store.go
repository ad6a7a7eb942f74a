package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/relief/internal/repository"
)

const (
	centersCollection      = "centros"
	negotiationsCollection = "negociacoes"
)

// Store implements repository.Store on top of MongoDB. Transactions need a replica set.
type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	centers      *CenterRepository
	negotiations *NegotiationRepository
	logger       *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// NewStore connects to MongoDB, verifies the connection and ensures indexes.
func NewStore(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:       client,
		db:           db,
		centers:      &CenterRepository{coll: db.Collection(centersCollection)},
		negotiations: &NegotiationRepository{coll: db.Collection(negotiationsCollection)},
		logger:       logger,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("mongodb store ready", zap.String("database", dbName))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(centersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "nome", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create center indexes: %w", err)
	}

	_, err = s.db.Collection(negotiationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dataCriacao", Value: 1}}},
		{Keys: bson.D{{Key: "centroOrigem", Value: 1}}},
		{Keys: bson.D{{Key: "centroDestino", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create negotiation indexes: %w", err)
	}
	return nil
}

// Centers returns the center repository.
func (s *Store) Centers() repository.CenterRepository { return s.centers }

// Negotiations returns the negotiation repository.
func (s *Store) Negotiations() repository.NegotiationRepository { return s.negotiations }

// WithTransaction runs fn inside a session transaction. The driver retries fn on
// transient transaction errors, so fn must reload whatever it mutates.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
