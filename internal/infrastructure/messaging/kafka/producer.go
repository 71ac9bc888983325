// Package kafka publishes ToxInsight request events to a Kafka topic.
package kafka

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ToxInsight/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeServiceUnavailable, "producer closed")

const (
	defaultMaxRetries      = 3
	defaultMaxMessageBytes = 1 << 20
	defaultWriteTimeout    = 5 * time.Second
	defaultDialTimeout     = 5 * time.Second
)

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers         []string
	Topic           string
	Acks            string
	Compression     string
	MaxRetries      int
	BatchTimeout    time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int
}

// ProducerConfigFrom maps the events section of the service configuration.
func ProducerConfigFrom(cfg config.EventsConfig) ProducerConfig {
	return ProducerConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Acks:         cfg.Acks,
		Compression:  cfg.Compression,
		BatchTimeout: cfg.BatchTimeout,
	}
}

// ProducerStats is a point-in-time snapshot of producer counters.
type ProducerStats struct {
	MessagesSent   int64
	MessagesFailed int64
	BytesSent      int64
}

// Message is a single record for the configured topic.
type Message struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type dialFunc func(ctx context.Context, network, address string) (io.Closer, error)

// Producer writes messages with a kafka.Writer.
type Producer struct {
	writer  WriterInterface
	dial    dialFunc
	cfg     ProducerConfig
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	closed  atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
	bytes  atomic.Int64
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithMetrics records publish failures.
func WithMetrics(m *prometheus.AppMetrics) ProducerOption {
	return func(p *Producer) { p.metrics = m }
}

// NewProducer creates a Producer. No connection is made until the first write.
func NewProducer(cfg ProducerConfig, logger logging.Logger, opts ...ProducerOption) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks(cfg.Acks),
		Compression:  compression(cfg.Compression),
		Transport:    &kafka.Transport{DialTimeout: defaultDialTimeout},
	}
	dialer := &kafka.Dialer{Timeout: defaultDialTimeout}
	dial := func(ctx context.Context, network, address string) (io.Closer, error) {
		return dialer.DialContext(ctx, network, address)
	}
	return newProducer(writer, dial, cfg, logger, opts...), nil
}

func newProducer(w WriterInterface, dial dialFunc, cfg ProducerConfig, logger logging.Logger, opts ...ProducerOption) *Producer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	p := &Producer{
		writer: w,
		dial:   dial,
		cfg:    withDefaults(cfg),
		logger: logger.Named("kafka"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func withDefaults(cfg ProducerConfig) ProducerConfig {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.MaxMessageBytes == 0 {
		cfg.MaxMessageBytes = defaultMaxMessageBytes
	}
	return cfg
}

func requiredAcks(acks string) kafka.RequiredAcks {
	switch acks {
	case "none":
		return kafka.RequireNone
	case "all":
		return kafka.RequireAll
	default:
		return kafka.RequireOne
	}
}

func compression(codec string) kafka.Compression {
	switch codec {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}

// Publish writes a single message and waits for the configured acks.
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg == nil || len(msg.Value) == 0 {
		return errors.New(errors.ErrCodeValidation, "message value required")
	}
	if len(msg.Value) > p.cfg.MaxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large")
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, p.toKafkaMessage(msg)); err != nil {
		p.failed.Add(1)
		prometheus.RecordError(p.metrics, "kafka", errors.ErrCodeExternalService.String())
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}
	p.sent.Add(1)
	p.bytes.Add(int64(len(msg.Value)))

	p.logger.Debug("message published",
		logging.String("topic", p.cfg.Topic),
		logging.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()))
	return nil
}

// Stats returns a snapshot of producer counters.
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesSent:   p.sent.Load(),
		MessagesFailed: p.failed.Load(),
		BytesSent:      p.bytes.Load(),
	}
}

// Name identifies the broker in readiness reports.
func (p *Producer) Name() string { return "kafka" }

// Check dials each broker until one answers.
func (p *Producer) Check(ctx context.Context) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	var lastErr error
	for _, b := range p.cfg.Brokers {
		conn, err := p.dial(ctx, "tcp", b)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
	}
	return errors.Wrap(lastErr, errors.ErrCodeServiceUnavailable, "no kafka broker reachable")
}

// Close flushes pending writes and closes the writer. It is idempotent.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

// The writer owns the topic; kafka-go rejects messages that set it too.
func (p *Producer) toKafkaMessage(msg *Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

// ValidateProducerConfig checks the required fields.
func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.Topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
