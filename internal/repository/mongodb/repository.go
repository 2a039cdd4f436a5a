package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erp-tools/subvariance/internal/domain/models"
)

const snapshotsCollection = "statistics_snapshots"

// Repository defines the interface for statistics snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.StatisticsSnapshot) error
	LatestSnapshots(ctx context.Context, limit int64) ([]models.StatisticsSnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return newRepository(client, dbName), nil
}

func newRepository(client *mongo.Client, dbName string) *MongoDBRepository {
	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: snapshotsCollection,
	}
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveSnapshot stores one statistics snapshot.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.StatisticsSnapshot) error {
	snapshot.TotalDifferenceText = snapshot.TotalDifferenceAmount.String()
	if _, err := r.collection().InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert statistics snapshot: %w", err)
	}
	return nil
}

// LatestSnapshots returns up to limit snapshots, newest first.
func (r *MongoDBRepository) LatestSnapshots(ctx context.Context, limit int64) ([]models.StatisticsSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var snapshots []models.StatisticsSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode statistics snapshots: %w", err)
	}

	for i := range snapshots {
		if err := snapshots[i].RestoreAmount(); err != nil {
			return nil, err
		}
	}

	return snapshots, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
