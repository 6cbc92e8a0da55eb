package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/santiagocoriap/quakescope/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes raised alerts to a Kafka topic.
type Writer struct {
	writer messageWriter
}

// NewWriter creates a Kafka producer for the alert topic.
func NewWriter(brokers []string, topic string) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w}
}

func (w *Writer) Name() string {
	return "kafka"
}

func (w *Writer) Publish(ctx context.Context, a models.Alert) error {
	msg, err := serializeToMessage(a)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

type alertEvent struct {
	ID           string  `json:"id"`
	EarthquakeID string  `json:"earthquake_id"`
	Magnitude    float64 `json:"magnitude"`
	Depth        float64 `json:"depth"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DistanceKm   float64 `json:"distance_km"`
	Severity     string  `json:"severity"`
	CreatedAt    string  `json:"created_at"`
}

// serializeToMessage marshals an Alert into a Kafka message keyed by the
// earthquake id, so alerts for one event land on one partition.
func serializeToMessage(a models.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(alertEvent{
		ID:           a.ID,
		EarthquakeID: a.EarthquakeID,
		Magnitude:    a.Magnitude,
		Depth:        a.Depth,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
		DistanceKm:   a.DistanceKm,
		Severity:     string(a.Severity),
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.EarthquakeID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(a.Severity)},
			{Key: "created_at", Value: []byte(a.CreatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
