// Package kafka consumes catalog-refresh events and triggers re-matching.
package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string
}

// MessageHandler processes incoming Kafka messages
type MessageHandler func(ctx context.Context, msg *IncomingMessage) error

// messageReader is the part of *kafka.Reader the consumer uses
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// Consumer handles Kafka message consumption
type Consumer struct {
	reader  messageReader
	topic   string
	logger  zerolog.Logger
	handler MessageHandler
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	retryDelay time.Duration
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig, logger zerolog.Logger, handler MessageHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       1e6, // 1MB
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})
	return newConsumer(reader, cfg.Topic, logger, handler)
}

func newConsumer(reader messageReader, topic string, logger zerolog.Logger, handler MessageHandler) *Consumer {
	return &Consumer{
		reader:     reader,
		topic:      topic,
		logger:     logger.With().Str("component", "kafka_consumer").Str("topic", topic).Logger(),
		handler:    handler,
		retryDelay: time.Second,
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info().Msg("kafka consumer started")
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.Info().Msg("consumer loop stopping")
				return
			}
			c.logger.Error().Err(err).Msg("failed to fetch message")
			if !c.pause(ctx) {
				return
			}
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage commits after success and after permanent failures. A
// transient failure is retried on the same message until it succeeds or the
// context ends, so later offsets are never committed past it.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	log := c.logger.With().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Logger()

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	incoming := &IncomingMessage{
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   headers,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Topic:     msg.Topic,
	}

	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, incoming)
		if err == nil {
			break
		}
		if IsPermanent(err) {
			log.Warn().Err(err).Msg("dropping unprocessable message")
			break
		}
		log.Error().Err(err).Int("attempt", attempt).Msg("failed to process message, retrying")
		if !c.pause(ctx) {
			// left uncommitted for redelivery
			return
		}
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error().Err(err).Msg("failed to commit message")
	}
}

func (c *Consumer) pause(ctx context.Context) bool {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
