package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/config"
	"github.com/couchcryptid/world-risk-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the adapter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes every record of a snapshot to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// RecordMessage is the value of each published message.
type RecordMessage struct {
	SnapshotID string                    `json:"snapshot_id"`
	Schema     string                    `json:"schema"`
	IngestedAt time.Time                 `json:"ingested_at"`
	Country    string                    `json:"country"`
	Year       int                       `json:"year"`
	Scores     map[domain.Metric]float64 `json:"scores"`
}

// Load publishes one message per record, keyed by country, in a single
// WriteMessages call.
func (w *Writer) Load(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Records))
	for i := range snap.Records {
		msg, err := serializeToMessage(snap, snap.Records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", snap.ID, err)
	}
	w.logger.Debug("snapshot published to kafka", "snapshot_id", snap.ID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one record of snap into a Kafka message.
func serializeToMessage(snap domain.Snapshot, rec domain.RiskRecord) (kafkago.Message, error) {
	data, err := json.Marshal(RecordMessage{
		SnapshotID: snap.ID,
		Schema:     snap.Schema,
		IngestedAt: snap.IngestedAt,
		Country:    rec.CountryCode,
		Year:       rec.Year,
		Scores:     rec.Scores,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %s: %w", rec.CountryCode, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.CountryCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snap.ID)},
			{Key: "schema", Value: []byte(snap.Schema)},
			{Key: "ingested_at", Value: []byte(snap.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
