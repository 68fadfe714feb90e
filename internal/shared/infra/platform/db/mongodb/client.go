package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Nombres de colecciones compartidas por los adapters.
const (
	EventsCollection    = "events"
	MarkersCollection   = "processed_messages"
	OutboxCollection    = "outbox"
	GamesCollection     = "games"
	PurchasesCollection = "purchases"
)

// Connect abre el cliente y comprueba que el primario responde.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("could not connect to mongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return client, nil
}

// EnsureIndexes crea los índices que usan las consultas de la aplicación. Es idempotente.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		EventsCollection: {
			{Keys: bson.D{{Key: "aggregateId", Value: 1}, {Key: "timestamp", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}}},
		},
		OutboxCollection: {
			{Keys: bson.D{{Key: "processed", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		PurchasesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "gameId", Value: 1}}},
		},
		GamesCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
