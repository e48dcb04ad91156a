package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmmarket/internal/repository/memory"
)

func streamMessage(t *testing.T, id string, e Event) redis.XMessage {
	t.Helper()
	values, err := e.values()
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: values}
}

func TestProcessor_RecordsKnownEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := NewProcessor(store.Audit(), zerolog.Nop())

	occurred := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	msg := streamMessage(t, "1700000000000-0", Event{
		Type:       FarmerApproved,
		SubjectID:  "farmer-1",
		ActorID:    "admin-1",
		Data:       map[string]any{"name": "Alice"},
		OccurredAt: occurred,
	})

	require.NoError(t, p.Handle(ctx, msg))
	require.NoError(t, p.Handle(ctx, msg))

	recorded, err := store.Audit().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	assert.Equal(t, "farmer.approved", recorded[0].Type)
	assert.Equal(t, "farmer-1", recorded[0].SubjectID)
	assert.Equal(t, "admin-1", recorded[0].ActorID)
	assert.True(t, occurred.Equal(recorded[0].OccurredAt))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(recorded[0].Payload, &payload))
	assert.Equal(t, "Alice", payload["name"])
}

func TestProcessor_SkipsUnknownAndMalformed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	p := NewProcessor(store.Audit(), zerolog.Nop())

	require.NoError(t, p.Handle(ctx, streamMessage(t, "1-0", Event{Type: "cart.checkout"})))
	require.NoError(t, p.Handle(ctx, redis.XMessage{ID: "2-0", Values: map[string]interface{}{"subject": "x"}}))

	recorded, err := store.Audit().ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recorded)
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), Event{Type: ProductCreated}))
	assert.NoError(t, NewPublisher(nil, "s").Publish(context.Background(), Event{Type: ProductCreated}))
}
