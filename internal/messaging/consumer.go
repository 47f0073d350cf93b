package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/models"
)

// ErrMalformedMessage marks deliveries that can never be processed.
var ErrMalformedMessage = errors.New("malformed message")

// StoryCompleter is the part of the story service the consumer drives.
type StoryCompleter interface {
	CompleteStory(ctx context.Context, storyID uuid.UUID) error
}

// CompletionProcessor turns one completion message into a CompleteStory call.
type CompletionProcessor struct {
	completer StoryCompleter
	logger    *zap.Logger
}

func NewCompletionProcessor(completer StoryCompleter, logger *zap.Logger) *CompletionProcessor {
	return &CompletionProcessor{completer: completer, logger: logger.Named("CompletionProcessor")}
}

// Process handles one message body. Unknown stories are logged and dropped.
func (p *CompletionProcessor) Process(ctx context.Context, body []byte) error {
	var event models.StoryCompletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	storyID, err := uuid.Parse(event.StoryID)
	if err != nil {
		return fmt.Errorf("%w: invalid storyId %q", ErrMalformedMessage, event.StoryID)
	}

	if err := p.completer.CompleteStory(ctx, storyID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			p.logger.Warn("Completion for unknown story ignored", zap.Stringer("storyID", storyID))
			return nil
		}
		return fmt.Errorf("failed to complete story %s: %w", storyID, err)
	}
	p.logger.Debug("Completion processed", zap.Stringer("storyID", storyID), zap.String("childID", event.ChildID))
	return nil
}

// CompletionConsumer feeds story completion messages from RabbitMQ into a CompletionProcessor.
type CompletionConsumer struct {
	conn      *amqp.Connection
	processor *CompletionProcessor
	queueName string
	logger    *zap.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewCompletionConsumer(conn *amqp.Connection, processor *CompletionProcessor, queueName string, logger *zap.Logger) *CompletionConsumer {
	return &CompletionConsumer{
		conn:      conn,
		processor: processor,
		queueName: queueName,
		logger:    logger.Named("CompletionConsumer"),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start declares the queue and consumes it in a background goroutine until
// ctx is cancelled or Stop is called.
func (c *CompletionConsumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare queue '%s': %w", c.queueName, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := ch.Consume(q.Name, appID+"-completions", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.logger.Info("Consumer started", zap.String("queue", q.Name))
	c.started.Store(true)

	go func() {
		defer close(c.done)
		defer ch.Close()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Consumer panicked", zap.Any("panic", r))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Context cancelled, stopping consumer")
				return
			case <-c.stop:
				c.logger.Info("Stop requested, stopping consumer")
				return
			case d, ok := <-msgs:
				if !ok {
					c.logger.Warn("Delivery channel closed")
					return
				}
				c.handle(ctx, d)
			}
		}
	}()
	return nil
}

func (c *CompletionConsumer) handle(ctx context.Context, d amqp.Delivery) {
	log := c.logger.With(zap.Uint64("deliveryTag", d.DeliveryTag))
	err := c.processor.Process(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformedMessage):
		log.Error("Dropping malformed completion message", zap.Error(err))
		_ = d.Nack(false, false)
	default:
		// one redelivery, then drop
		requeue := !d.Redelivered
		log.Error("Failed to process completion message", zap.Error(err), zap.Bool("requeue", requeue))
		_ = d.Nack(false, requeue)
	}
}

// Stop signals the consumer goroutine and waits for it to exit.
func (c *CompletionConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}
