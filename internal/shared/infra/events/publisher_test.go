package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/davicafu/gamehub/internal/config"
	"github.com/davicafu/gamehub/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueuePublisher_SendsEnvelope(t *testing.T) {
	// ARRANGE
	queue := &mocks.FakeQueue{}
	resolver := config.NewResolver("queue", config.Static("http://localhost/queue/games"))
	publisher := NewQueuePublisher(queue, resolver, time.Second, zap.NewNop())

	// ACT
	publisher.Publish(context.Background(), "GameStarted", "game-1", "user-1", map[string]interface{}{"source": "web"})
	publisher.Close()

	// ASSERT
	sent := queue.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "http://localhost/queue/games", sent[0].Queue)
	assert.Equal(t, "GameStarted", sent[0].Attributes["eventType"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(sent[0].Body, &body))
	assert.Equal(t, "GameStarted", body["eventType"])
	assert.Equal(t, "game-1", body["subjectId"])
	assert.Equal(t, "user-1", body["actorId"])
	ts, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestQueuePublisher_UnresolvedQueueIsSwallowed(t *testing.T) {
	// ARRANGE
	queue := &mocks.FakeQueue{}
	resolver := config.NewResolver("queue", config.Static(""))
	publisher := NewQueuePublisher(queue, resolver, time.Second, zap.NewNop())

	// ACT
	assert.NotPanics(t, func() {
		publisher.Publish(context.Background(), "GameQueued", "game-1", "user-1", nil)
	})
	publisher.Close()

	// ASSERT
	assert.Empty(t, queue.Sent())
}

func TestQueuePublisher_TransportErrorIsSwallowed(t *testing.T) {
	queue := &mocks.FakeQueue{SendErr: errors.New("queue unavailable")}
	resolver := config.NewResolver("queue", config.Static("q"))
	publisher := NewQueuePublisher(queue, resolver, time.Second, zap.NewNop())

	publisher.Publish(context.Background(), "GameStarted", "game-1", "user-1", nil)
	publisher.Close()

	assert.Empty(t, queue.Sent())
}

func TestQueuePublisher_IgnoresCallerCancellation(t *testing.T) {
	queue := &mocks.FakeQueue{}
	resolver := config.NewResolver("queue", config.Static("q"))
	publisher := NewQueuePublisher(queue, resolver, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	publisher.Publish(ctx, "GameStarted", "game-1", "user-1", nil)
	cancel()
	publisher.Close()

	assert.Len(t, queue.Sent(), 1)
}
