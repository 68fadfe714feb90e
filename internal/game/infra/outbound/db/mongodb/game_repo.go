package mongodb

import (
	"context"
	"errors"
	"time"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	sharedMongo "github.com/davicafu/gamehub/internal/shared/infra/platform/db/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GameRepoMongoDB implementa GameRepository y GameCounters sobre la colección games.
type GameRepoMongoDB struct {
	gamesColl *mongo.Collection
}

func NewGameRepoMongoDB(db *mongo.Database) *GameRepoMongoDB {
	return &GameRepoMongoDB{gamesColl: db.Collection(sharedMongo.GamesCollection)}
}

// --- Structs de BSON para el mapeo ---

type mongoGame struct {
	ID           string     `bson:"_id"`
	Name         string     `bson:"name"`
	Description  string     `bson:"description"`
	Category     string     `bson:"category"`
	Price        float64    `bson:"price"`
	PlayCount    int64      `bson:"playCount"`
	LastPlayedAt *time.Time `bson:"lastPlayedAt,omitempty"`
	QueueCount   int64      `bson:"queueCount"`
	LastQueuedAt *time.Time `bson:"lastQueuedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
}

// --- Lectura ---

func (r *GameRepoMongoDB) GetByID(ctx context.Context, id string) (*gameDomain.Game, error) {
	var mg mongoGame
	err := r.gamesColl.FindOne(ctx, bson.M{"_id": id}).Decode(&mg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, gameDomain.ErrGameNotFound
		}
		return nil, err
	}
	g := fromMongoGame(&mg)
	return &g, nil
}

func (r *GameRepoMongoDB) GetByIDs(ctx context.Context, ids []string) ([]gameDomain.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.gamesColl.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return decodeGames(ctx, cursor)
}

// --- Contadores ---

func (r *GameRepoMongoDB) IncrementPlayCount(ctx context.Context, id string, at time.Time) error {
	return r.increment(ctx, id, "playCount", "lastPlayedAt", at)
}

func (r *GameRepoMongoDB) IncrementQueueCount(ctx context.Context, id string, at time.Time) error {
	return r.increment(ctx, id, "queueCount", "lastQueuedAt", at)
}

// increment es un único update atómico: $inc del contador y $max de la fecha,
// así una re-entrega tardía no retrasa lastXxxAt.
func (r *GameRepoMongoDB) increment(ctx context.Context, id, counter, lastAt string, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{counter: 1},
		"$max": bson.M{lastAt: at},
	}
	res, err := r.gamesColl.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return gameDomain.ErrGameNotFound
	}
	return nil
}

// --- Helpers de Mapeo y Conversión ---

func decodeGames(ctx context.Context, cursor *mongo.Cursor) ([]gameDomain.Game, error) {
	defer cursor.Close(ctx)

	var games []gameDomain.Game
	for cursor.Next(ctx) {
		var mg mongoGame
		if err := cursor.Decode(&mg); err != nil {
			return nil, err
		}
		games = append(games, fromMongoGame(&mg))
	}
	return games, cursor.Err()
}

func fromMongoGame(mg *mongoGame) gameDomain.Game {
	return gameDomain.Game{
		ID: mg.ID, Name: mg.Name, Description: mg.Description, Category: mg.Category, Price: mg.Price,
		PlayCount: mg.PlayCount, LastPlayedAt: mg.LastPlayedAt,
		QueueCount: mg.QueueCount, LastQueuedAt: mg.LastQueuedAt, CreatedAt: mg.CreatedAt,
	}
}

// Verificación estática de la interfaz.
var (
	_ gameDomain.GameRepository = (*GameRepoMongoDB)(nil)
	_ gameDomain.GameCounters   = (*GameRepoMongoDB)(nil)
)
