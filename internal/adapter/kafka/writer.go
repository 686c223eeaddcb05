package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/space-weather-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes each correlated pair of a report as one message.
// It implements pipeline.Exporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the pair topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Export serializes every pair and publishes them in a single WriteMessages
// call. An empty report publishes nothing.
func (w *Writer) Export(ctx context.Context, report domain.Report) error {
	if len(report.Pairs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Pairs))
	for i := range report.Pairs {
		msg, err := serializeToMessage(report.Pairs[i], report.RunID, report.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("pairs published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey identifies a pair on the topic. The same CME/GST link always
// lands on the same partition.
func MessageKey(pair domain.CorrelatedPair) string {
	return pair.CMEID + "|" + pair.GSTID
}

// serializeToMessage marshals a CorrelatedPair into a Kafka message.
func serializeToMessage(pair domain.CorrelatedPair, runID string, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(pair)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize pair: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(pair)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
