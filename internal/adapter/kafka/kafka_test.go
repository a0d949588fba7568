package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/config"
	"github.com/couchcryptid/world-risk-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	calls  int
	err    error
	closed bool
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		ID:         "snap-1",
		Schema:     "wri",
		IngestedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Records: []domain.RiskRecord{
			{CountryCode: "Philippines", Year: 2023, Scores: map[domain.Metric]float64{domain.MetricWorldRiskIndex: 46.82}},
			{CountryCode: "Germany", Year: 2023, Scores: map[domain.Metric]float64{domain.MetricWorldRiskIndex: 3.32}},
		},
	}
}

func newTestWriter(inner messageWriter) *Writer {
	return &Writer{writer: inner, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	snap := testSnapshot()

	msg, err := serializeToMessage(snap, snap.Records[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("Philippines"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "snapshot_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("snap-1"), msg.Headers[0].Value)
	assert.Equal(t, "schema", msg.Headers[1].Key)
	assert.Equal(t, []byte("wri"), msg.Headers[1].Value)
	assert.Equal(t, "ingested_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-05-01T12:00:00Z"), msg.Headers[2].Value)

	var got RecordMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "Philippines", got.Country)
	assert.Equal(t, 2023, got.Year)
	assert.Equal(t, "snap-1", got.SnapshotID)
	assert.InDelta(t, 46.82, got.Scores[domain.MetricWorldRiskIndex], 0)
}

func TestWriter_Load_OneMessagePerRecord(t *testing.T) {
	inner := &recordingWriter{}
	w := newTestWriter(inner)

	require.NoError(t, w.Load(context.Background(), testSnapshot()))

	assert.Equal(t, 1, inner.calls, "records are written in one batch")
	require.Len(t, inner.msgs, 2)
	assert.Equal(t, []byte("Philippines"), inner.msgs[0].Key)
	assert.Equal(t, []byte("Germany"), inner.msgs[1].Key)
}

func TestWriter_Load_EmptySnapshot(t *testing.T) {
	inner := &recordingWriter{}
	require.NoError(t, newTestWriter(inner).Load(context.Background(), domain.Snapshot{ID: "empty"}))
	assert.Zero(t, inner.calls)
}

func TestWriter_Load_Error(t *testing.T) {
	boom := errors.New("leader not available")
	w := newTestWriter(&recordingWriter{err: boom})

	err := w.Load(context.Background(), testSnapshot())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "snap-1")
}

func TestWriter_Close(t *testing.T) {
	inner := &recordingWriter{}
	require.NoError(t, newTestWriter(inner).Close())
	assert.True(t, inner.closed)
}

func TestNewWriter_Config(t *testing.T) {
	w := NewWriter(&config.Config{KafkaBrokers: []string{"b1:9092"}, KafkaSinkTopic: "risk"}, slog.Default())
	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "risk", kw.Topic)
	assert.Equal(t, kafkago.RequireAll, kw.RequiredAcks)
}
