package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tnqbao/gau-marine-service/infra"
	"github.com/tnqbao/gau-marine-service/infra/produce"
	"github.com/tnqbao/gau-marine-service/utils"
)

type ObjectRemover interface {
	Remove(ctx context.Context, key string) error
}

// StorageConsumer deletes objects reported on the orphan queue.
type StorageConsumer struct {
	channel   *amqp.Channel
	objects   ObjectRemover
	logger    *infra.LoggerClient
	secretKey string

	maxRetries int
	backoff    time.Duration
}

func NewStorageConsumer(channel *amqp.Channel, infra *infra.Infra, secretKey string) *StorageConsumer {
	return &StorageConsumer{
		channel:    channel,
		objects:    infra.Minio,
		logger:     infra.Logger,
		secretKey:  secretKey,
		maxRetries: 3,
		backoff:    2 * time.Second,
	}
}

func (c *StorageConsumer) Start(ctx context.Context) error {
	if err := produce.DeclareStorageTopology(c.channel); err != nil {
		return fmt.Errorf("failed to declare storage topology: %w", err)
	}
	if c.secretKey == "" {
		c.logger.WarningWithContextf(ctx, "[Storage Consumer] PRIVATE_KEY is empty, orphan messages are not verified")
	}

	msgs, err := c.channel.Consume(
		produce.OrphanQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register orphan consumer: %w", err)
	}

	c.logger.InfoWithContextf(ctx, "[Storage Consumer] Started listening for orphaned objects on queue: %s", produce.OrphanQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.InfoWithContextf(ctx, "[Storage Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.WarningWithContextf(ctx, "[Storage Consumer] Channel closed")
					return
				}
				c.handleOrphan(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *StorageConsumer) handleOrphan(ctx context.Context, msg amqp.Delivery) {
	var payload produce.OrphanObjectMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if !c.verify(msg, payload) {
		c.logger.WarningWithContextf(ctx, "[Storage Consumer] Dropping message with bad signature for %s", payload.ObjectKey)
		_ = msg.Nack(false, false)
		return
	}

	if !validObjectKey(payload.ObjectKey) {
		c.logger.WarningWithContextf(ctx, "[Storage Consumer] Dropping message with invalid object key %q", payload.ObjectKey)
		_ = msg.Nack(false, false)
		return
	}

	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = c.objects.Remove(ctx, payload.ObjectKey)
		if err == nil {
			c.logger.InfoWithContextf(ctx, "[Storage Consumer] Deleted orphan %s of owner %s (%s)", payload.ObjectKey, payload.OwnerID, payload.Reason)
			_ = msg.Ack(false)
			return
		}

		c.logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Attempt %d/%d to delete %s failed: %v", attempt, c.maxRetries, payload.ObjectKey, err)

		if attempt < c.maxRetries {
			time.Sleep(time.Duration(attempt) * c.backoff)
		}
	}

	c.logger.ErrorWithContextf(ctx, err, "[Storage Consumer] Failed after %d attempts, requeueing %s", c.maxRetries, payload.ObjectKey)
	_ = msg.Nack(false, true)
}

func (c *StorageConsumer) verify(msg amqp.Delivery, payload produce.OrphanObjectMessage) bool {
	if c.secretKey == "" {
		return true
	}
	signature, _ := msg.Headers[produce.SignatureHeader].(string)
	return utils.VerifyMessage(c.secretKey, produce.OrphanRoutingKey, payload.Timestamp, msg.Body, signature)
}

func validObjectKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == ".." {
			return false
		}
	}
	return true
}
