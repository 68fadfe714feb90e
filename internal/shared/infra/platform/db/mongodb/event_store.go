package mongodb

import (
	"context"
	"time"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventStoreMongoDB guarda el event log en la colección events.
type EventStoreMongoDB struct {
	coll *mongo.Collection
}

func NewEventStoreMongoDB(db *mongo.Database) *EventStoreMongoDB {
	return &EventStoreMongoDB{coll: db.Collection(EventsCollection)}
}

type mongoDomainEvent struct {
	ID          string                 `bson:"_id"`
	AggregateID string                 `bson:"aggregateId"`
	Type        string                 `bson:"type"`
	Timestamp   time.Time              `bson:"timestamp"`
	Seq         int                    `bson:"seq"`
	Data        map[string]interface{} `bson:"data"`
}

func (s *EventStoreMongoDB) Append(ctx context.Context, evt sharedDomain.DomainEvent) error {
	_, err := s.coll.InsertOne(ctx, mongoDomainEvent{
		ID:          evt.ID.String(),
		AggregateID: evt.AggregateID,
		Type:        evt.Type,
		Timestamp:   evt.Timestamp,
		Seq:         evt.Seq,
		Data:        evt.Data,
	})
	return err
}

var _ sharedDomain.EventStore = (*EventStoreMongoDB)(nil)
