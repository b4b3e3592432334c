package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/config"
)

func TestEncode(t *testing.T) {
	at := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	msg, err := encode(Event{
		Type:      TypeCartConfirmed,
		SessionID: "sess-1",
		At:        at,
		Data:      map[string]int64{"total": 4500},
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("sess-1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, []byte(TypeCartConfirmed), msg.Headers[0].Value)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "cart.confirmed", got["type"])
	assert.Equal(t, float64(4500), got["data"].(map[string]any)["total"])
}

func TestEncode_Unencodable(t *testing.T) {
	_, err := encode(Event{Type: "x", Data: make(chan int)})
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), Event{
		Type:      TypeItineraryGenerated,
		SessionID: "sess-2",
		Data:      map[string]string{"itinerary_id": "itin_abc"},
	}))
	require.NoError(t, p.Close())

	out := buf.String()
	assert.Contains(t, out, "type=itinerary.generated")
	assert.Contains(t, out, "session_id=sess-2")
	assert.Contains(t, out, "itin_abc")
}

func TestNew_SelectsBackend(t *testing.T) {
	_, isLog := New(config.EventsConfig{Topic: "t"}).(*Log)
	assert.True(t, isLog)

	k, isKafka := New(config.EventsConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}).(*Kafka)
	require.True(t, isKafka)
	assert.Equal(t, "t", k.w.Topic)
	assert.NoError(t, k.Close())
}
