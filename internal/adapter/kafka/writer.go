package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wind-power-etl/internal/config"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
	"github.com/couchcryptid/wind-power-etl/internal/observability"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes cleaned readings to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer    messageWriter
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu      sync.Mutex
	pending progress
}

// progress records how much of a readings slice a failed Load acknowledged.
type progress struct {
	first *domain.Reading
	n     int
	sent  int
}

func (p progress) resumes(readings []domain.Reading) bool {
	return p.first != nil && len(readings) == p.n && &readings[0] == p.first
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.KafkaBatchSize,
	}
	return newWriter(w, cfg.KafkaBatchSize, logger, metrics)
}

func newWriter(w messageWriter, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Writer{writer: w, batchSize: batchSize, logger: logger, metrics: metrics}
}

// Name identifies the loader in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Load publishes readings in batches of the configured size, keyed by
// turbine and sequence. When a batch fails, the acknowledged prefix is
// remembered and a later Load of the same slice resumes after it, so a
// retried Load does not publish a reading twice.
func (w *Writer) Load(ctx context.Context, readings []domain.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	start := 0
	if w.pending.resumes(readings) {
		start = w.pending.sent
		w.logger.Info("resuming publish", "acknowledged", start, "count", len(readings))
	}
	w.pending = progress{}

	for ; start < len(readings); start += w.batchSize {
		end := min(start+w.batchSize, len(readings))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, r := range readings[start:end] {
			msg, err := serializeToMessage(r)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			w.pending = progress{first: &readings[0], n: len(readings), sent: start}
			return fmt.Errorf("publish readings %d-%d: %w", start, end, err)
		}
		w.metrics.ReadingsPublished.Add(float64(len(msgs)))
	}
	w.logger.Info("readings published", "count", len(readings), "batch_size", w.batchSize)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// readingMessage is the wire form of a reading. Missing values are null.
type readingMessage struct {
	Seq                 int      `json:"seq"`
	WindSpeed           *float64 `json:"wind_speed"`
	WindDirection       *float64 `json:"wind_dir"`
	AirDensity          *float64 `json:"air_den"`
	TurbulenceIntensity *float64 `json:"turbulence_int"`
	BelowHubShear       *float64 `json:"below_hub_wshear"`
	PercentToRated      *float64 `json:"perc_to_rated_power"`
	Source              string   `json:"source"`
	TurbineID           string   `json:"turbine_id"`
	AbsolutePower       *float64 `json:"absolute_power"`
}

func newReadingMessage(r domain.Reading) readingMessage {
	value := func(f domain.Field) *float64 {
		v, ok := r.Value(f)
		if !ok {
			return nil
		}
		return &v
	}
	return readingMessage{
		Seq:                 r.Seq,
		WindSpeed:           value(domain.FieldWindSpeed),
		WindDirection:       value(domain.FieldWindDirection),
		AirDensity:          value(domain.FieldAirDensity),
		TurbulenceIntensity: value(domain.FieldTurbulenceIntensity),
		BelowHubShear:       value(domain.FieldBelowHubShear),
		PercentToRated:      value(domain.FieldPercentToRated),
		Source:              r.Source.String(),
		TurbineID:           r.TurbineID,
		AbsolutePower:       value(domain.FieldAbsolutePower),
	}
}

// serializeToMessage marshals a Reading into a Kafka message.
func serializeToMessage(r domain.Reading) (kafkago.Message, error) {
	source, err := r.Source.MarshalText()
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reading %s: %w", r.Key(), err)
	}
	data, err := json.Marshal(newReadingMessage(r))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reading %s: %w", r.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(r.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: source},
			{Key: "turbine_id", Value: []byte(r.TurbineID)},
		},
	}, nil
}
