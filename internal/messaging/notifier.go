package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Panchalparth471/app-backend/internal/interfaces"
	"github.com/Panchalparth471/app-backend/internal/models"
)

const appID = "story-replenisher"

type rabbitMQNotifier struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

var _ interfaces.ReplenishmentNotifier = (*rabbitMQNotifier)(nil)

// NewRabbitMQNotifier declares the durable queue and returns a notifier
// publishing to it. The channel is owned and closed by the caller.
func NewRabbitMQNotifier(ch *amqp.Channel, queueName string, logger *zap.Logger) (interfaces.ReplenishmentNotifier, error) {
	_, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-mode": "lazy"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}
	log := logger.Named("RabbitMQNotifier")
	log.Info("Replenishment queue declared", zap.String("queue", queueName))
	return &rabbitMQNotifier{channel: ch, queueName: queueName, logger: log}, nil
}

func (n *rabbitMQNotifier) NotifyReplenished(ctx context.Context, event models.StoriesReplenishedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal replenishment event for %s: %w", event.CollectionKey, err)
	}

	err = n.channel.PublishWithContext(ctx,
		"",
		n.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			AppId:        appID,
			MessageId:    fmt.Sprintf("%s-%d", event.CollectionKey, event.GeneratedAt.UnixNano()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish replenishment event for %s: %w", event.CollectionKey, err)
	}

	n.logger.Debug("Replenishment event published",
		zap.String("collection", event.CollectionKey), zap.Int("stories", len(event.StoryIDs)))
	return nil
}
