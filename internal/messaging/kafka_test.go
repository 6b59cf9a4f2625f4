package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNotifyWritesKeyedEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &AlertPublisher{writer: w, topic: "solar.alerts"}
	created := time.Date(2023, 4, 16, 9, 0, 0, 0, time.UTC)

	err := p.Notify(context.Background(), domain.Alert{
		ID: "a-1", SiteID: 12, Severity: domain.SeverityWarning, Category: domain.CategoryPerformance,
		Message: "PR 70.0%", CreatedAt: created,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	assert.Equal(t, "severity", msg.Headers[0].Key)
	assert.Equal(t, "WARNING", string(msg.Headers[0].Value))

	var ev AlertEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "a-1", ev.AlertID)
	assert.Equal(t, created, ev.CreatedAt)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNotifyWrapsWriterError(t *testing.T) {
	p := &AlertPublisher{writer: &recordingWriter{err: errors.New("leader not available")}, topic: "solar.alerts"}
	err := p.Notify(context.Background(), domain.Alert{ID: "a-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solar.alerts")
}

func TestNewAlertPublisherValidates(t *testing.T) {
	_, err := NewAlertPublisher(nil, "solar.alerts")
	assert.Error(t, err)
	_, err = NewAlertPublisher([]string{"kafka:9092"}, " ")
	assert.Error(t, err)

	p, err := NewAlertPublisher([]string{"kafka:9092"}, "solar.alerts")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
