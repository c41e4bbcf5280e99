package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-case-etl/internal/config"
	"github.com/couchcryptid/covid-case-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// worldKey keys world-level summaries, which carry no country.
const worldKey = "All"

// Writer produces daily summary messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
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

// LoadBatch serializes and publishes a batch of summaries in a single
// WriteMessages call. Messages for the same scope share a key and so a partition.
func (w *Writer) LoadBatch(ctx context.Context, batch domain.SummaryBatch) error {
	if len(batch.Summaries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch.Summaries))
	for i := range batch.Summaries {
		msg, err := serializeToMessage(batch.RunID, batch.Summaries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d summaries: %w", len(msgs), err)
	}
	w.logger.Debug("summaries written", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// summaryMessage is the JSON value written for each DailySummary.
type summaryMessage struct {
	Scope     string `json:"scope"`
	Date      string `json:"date"`
	Confirmed int64  `json:"confirmed"`
	Deaths    int64  `json:"deaths"`
	Recovered int64  `json:"recovered"`
}

// serializeToMessage marshals a DailySummary into a Kafka message keyed by scope.
func serializeToMessage(runID string, s domain.DailySummary) (kafkago.Message, error) {
	scope := s.Country
	if scope == "" {
		scope = worldKey
	}
	data, err := json.Marshal(summaryMessage{
		Scope:     scope,
		Date:      s.Date.Format(domain.DateLayout),
		Confirmed: s.Confirmed,
		Deaths:    s.Deaths,
		Recovered: s.Recovered,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(scope),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scope", Value: []byte(scope)},
			{Key: "run_id", Value: []byte(runID)},
		},
	}, nil
}

// DecodeMessage parses a message written by Writer back into a DailySummary.
// World-level summaries decode with an empty Country.
func DecodeMessage(msg kafkago.Message) (domain.DailySummary, error) {
	var m summaryMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		return domain.DailySummary{}, fmt.Errorf("decode daily summary: %w", err)
	}
	date, err := time.Parse(domain.DateLayout, m.Date)
	if err != nil {
		return domain.DailySummary{}, fmt.Errorf("decode daily summary date: %w", err)
	}
	country := m.Scope
	if country == worldKey {
		country = ""
	}
	return domain.DailySummary{
		Date:      date,
		Country:   country,
		Confirmed: m.Confirmed,
		Deaths:    m.Deaths,
		Recovered: m.Recovered,
	}, nil
}
