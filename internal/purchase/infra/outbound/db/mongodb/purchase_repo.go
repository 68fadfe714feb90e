package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	gameDomain "github.com/davicafu/gamehub/internal/game/domain"
	purchaseDomain "github.com/davicafu/gamehub/internal/purchase/domain"
	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	sharedMongo "github.com/davicafu/gamehub/internal/shared/infra/platform/db/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PurchaseRepoMongoDB implementa PurchaseRepository y el historial que usa el recomendador.
type PurchaseRepoMongoDB struct {
	client        *mongo.Client
	purchasesColl *mongo.Collection
	outboxColl    *mongo.Collection
}

// NewPurchaseRepoMongoDB es el constructor del repositorio.
func NewPurchaseRepoMongoDB(client *mongo.Client, dbName string) *PurchaseRepoMongoDB {
	db := client.Database(dbName)
	return &PurchaseRepoMongoDB{
		client:        client,
		purchasesColl: db.Collection(sharedMongo.PurchasesCollection),
		outboxColl:    db.Collection(sharedMongo.OutboxCollection),
	}
}

// --- Structs de BSON para el mapeo ---

type mongoPurchase struct {
	ID        string                        `bson:"_id"`
	UserID    string                        `bson:"userId"`
	GameID    string                        `bson:"gameId"`
	Amount    float64                       `bson:"amount"`
	Status    purchaseDomain.PurchaseStatus `bson:"status"`
	CreatedAt time.Time                     `bson:"createdAt"`
}

// --- CRUD Transaccional ---

func (r *PurchaseRepoMongoDB) Create(ctx context.Context, p *purchaseDomain.Purchase, evt sharedDomain.OutboxEvent) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	// La transacción asegura que la compra y su evento de outbox sean atómicos.
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.purchasesColl.InsertOne(sessCtx, toMongoPurchase(p)); err != nil {
			return nil, err
		}
		if _, err := r.outboxColl.InsertOne(sessCtx, sharedMongo.ToMongoOutboxEvent(evt)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// --- Lectura ---

func (r *PurchaseRepoMongoDB) GetByID(ctx context.Context, id string) (*purchaseDomain.Purchase, error) {
	var mp mongoPurchase
	err := r.purchasesColl.FindOne(ctx, bson.M{"_id": id}).Decode(&mp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, purchaseDomain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return fromMongoPurchase(&mp), nil
}

// --- Historial (gameDomain.PurchaseHistory) ---

func (r *PurchaseRepoMongoDB) RecentPaidGameIDs(ctx context.Context, userID string, n int) ([]string, error) {
	filter := bson.M{"userId": userID, "status": purchaseDomain.PurchasePaid}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(n)).
		SetProjection(bson.M{"gameId": 1})

	cursor, err := r.purchasesColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			GameID string `bson:"gameId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.GameID)
	}
	return ids, cursor.Err()
}

func (r *PurchaseRepoMongoDB) PurchasedGameIDs(ctx context.Context, userID string) ([]string, error) {
	values, err := r.purchasesColl.Distinct(ctx, "gameId", bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *PurchaseRepoMongoDB) TopPaidGames(ctx context.Context, limit int) ([]gameDomain.GameCount, error) {
	cursor, err := r.purchasesColl.Aggregate(ctx, topPaidPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("top paid aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []gameDomain.GameCount
	for cursor.Next(ctx) {
		var doc struct {
			GameID string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		counts = append(counts, gameDomain.GameCount{GameID: doc.GameID, Count: doc.Count})
	}
	return counts, cursor.Err()
}

// topPaidPipeline agrupa compras PAID por juego; empate por id ascendente para un orden estable.
func topPaidPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": purchaseDomain.PurchasePaid}}},
		{{Key: "$group", Value: bson.M{"_id": "$gameId", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// --- Helpers de Mapeo y Conversión ---

func toMongoPurchase(p *purchaseDomain.Purchase) *mongoPurchase {
	return &mongoPurchase{
		ID: p.ID, UserID: p.UserID, GameID: p.GameID,
		Amount: p.Amount, Status: p.Status, CreatedAt: p.CreatedAt,
	}
}

func fromMongoPurchase(mp *mongoPurchase) *purchaseDomain.Purchase {
	return &purchaseDomain.Purchase{
		ID: mp.ID, UserID: mp.UserID, GameID: mp.GameID,
		Amount: mp.Amount, Status: mp.Status, CreatedAt: mp.CreatedAt,
	}
}

// Verificación estática de las interfaces.
var (
	_ purchaseDomain.PurchaseRepository = (*PurchaseRepoMongoDB)(nil)
	_ gameDomain.PurchaseHistory        = (*PurchaseRepoMongoDB)(nil)
)
