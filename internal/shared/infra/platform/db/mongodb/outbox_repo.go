package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxRepoMongoDB implementa la interfaz sharedDomain.OutboxRepository.
type OutboxRepoMongoDB struct {
	outboxColl *mongo.Collection
}

func NewOutboxRepoMongoDB(db *mongo.Database) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{outboxColl: db.Collection(OutboxCollection)}
}

// MongoOutboxEvent es el documento de la colección outbox. El payload se guarda
// como texto JSON para publicarlo tal cual.
type MongoOutboxEvent struct {
	ID            string    `bson:"_id"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	EventType     string    `bson:"eventType"`
	Payload       string    `bson:"payload"`
	CreatedAt     time.Time `bson:"createdAt"`
	Processed     bool      `bson:"processed"`
}

// ToMongoOutboxEvent lo usan los repos que insertan en la outbox dentro de su transacción.
func ToMongoOutboxEvent(evt sharedDomain.OutboxEvent) *MongoOutboxEvent {
	return &MongoOutboxEvent{
		ID:            evt.ID.String(),
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.EventType,
		Payload:       string(evt.Payload),
		CreatedAt:     evt.CreatedAt,
		Processed:     false,
	}
}

// FetchPendingOutbox obtiene los eventos no procesados, los más antiguos primero.
func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var mo MongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, err
		}
		evt, err := fromMongoOutboxEvent(&mo)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, cursor.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"processed": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

func fromMongoOutboxEvent(mo *MongoOutboxEvent) (sharedDomain.OutboxEvent, error) {
	id, err := uuid.Parse(mo.ID)
	if err != nil {
		return sharedDomain.OutboxEvent{}, fmt.Errorf("outbox event with invalid id %q: %w", mo.ID, err)
	}
	return sharedDomain.OutboxEvent{
		ID:            id,
		AggregateType: mo.AggregateType,
		AggregateID:   mo.AggregateID,
		EventType:     mo.EventType,
		Payload:       json.RawMessage(mo.Payload),
		CreatedAt:     mo.CreatedAt,
		Processed:     mo.Processed,
	}, nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
