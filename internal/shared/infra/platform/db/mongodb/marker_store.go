package mongodb

import (
	"context"
	"time"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MarkerStoreMongoDB usa el _id único de processed_messages como insert-if-absent.
type MarkerStoreMongoDB struct {
	coll *mongo.Collection
}

func NewMarkerStoreMongoDB(db *mongo.Database) *MarkerStoreMongoDB {
	return &MarkerStoreMongoDB{coll: db.Collection(MarkersCollection)}
}

type mongoMarker struct {
	MessageID   string    `bson:"_id"`
	EventType   string    `bson:"eventType"`
	SubjectID   string    `bson:"subjectId"`
	ProcessedAt time.Time `bson:"processedAt"`
}

func (s *MarkerStoreMongoDB) TryInsertMarker(ctx context.Context, m sharedDomain.ProcessedMarker) (bool, error) {
	_, err := s.coll.InsertOne(ctx, mongoMarker{
		MessageID:   m.MessageID,
		EventType:   m.EventType,
		SubjectID:   m.SubjectID,
		ProcessedAt: m.ProcessedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MarkerStoreMongoDB) ReleaseMarker(ctx context.Context, messageID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": messageID})
	return err
}

var _ sharedDomain.IdempotencyStore = (*MarkerStoreMongoDB)(nil)
