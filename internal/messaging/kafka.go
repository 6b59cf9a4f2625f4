// Package messaging publishes alert events to Kafka for downstream consumers.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertEvent is the JSON value written for every raised alert.
type AlertEvent struct {
	AlertID   string    `json:"alert_id"`
	SiteID    int64     `json:"site_id"`
	Severity  string    `json:"severity"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertPublisher writes alerts keyed by site so one site's alerts stay ordered.
type AlertPublisher struct {
	writer messageWriter
	topic  string
}

func NewAlertPublisher(brokers []string, topic string) (*AlertPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("alert topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &AlertPublisher{writer: w, topic: topic}, nil
}

// Notify implements alerting.Notifier.
func (p *AlertPublisher) Notify(ctx context.Context, a domain.Alert) error {
	value, err := json.Marshal(AlertEvent{
		AlertID:   a.ID,
		SiteID:    a.SiteID,
		Severity:  string(a.Severity),
		Category:  string(a.Category),
		Message:   a.Message,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode alert event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(a.SiteID, 10)),
		Value: value,
		Time:  a.CreatedAt,
		Headers: []kafka.Header{
			{Key: "severity", Value: []byte(a.Severity)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert to %s: %w", p.topic, err)
	}
	return nil
}

func (p *AlertPublisher) Close() error { return p.writer.Close() }
