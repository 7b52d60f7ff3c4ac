package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/water-level-dashboard-service/internal/config"
	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	event := domain.AlertEvent{
		StationID:    "GW-01",
		StationName:  "Aurangabad",
		Status:       domain.AlertLow,
		ThresholdM:   11,
		MinLevelM:    9.8,
		ReadingCount: 4,
		EvaluatedAt:  now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("GW-01"), msg.Key)
	assert.Contains(t, string(msg.Value), `"status":"LOW"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "alert_status", msg.Headers[0].Key)
	assert.Equal(t, []byte("LOW"), msg.Headers[0].Value)
	assert.Equal(t, "evaluated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.AlertEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.MinLevelM, decoded.MinLevelM)
	assert.Equal(t, event.ReadingCount, decoded.ReadingCount)
}

func TestNewAlertWriter_UsesConfig(t *testing.T) {
	cfg := &config.Config{
		KafkaBrokers:    []string{"broker-a:9092", "broker-b:9092"},
		KafkaAlertTopic: "station-alerts",
	}

	w := NewAlertWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "station-alerts", w.writer.Topic)
	assert.IsType(t, &kafkago.Hash{}, w.writer.Balancer)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}
