package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tnqbao/gau-marine-service/entity"
)

// NotificationHub fans user notifications out over Redis pub/sub so that any
// API replica holding the owner's event stream can deliver them.
type NotificationHub struct {
	redis  *RedisClient
	logger *LoggerClient
}

func NewNotificationHub(redis *RedisClient, logger *LoggerClient) *NotificationHub {
	return &NotificationHub{redis: redis, logger: logger}
}

func NotificationChannel(owner uuid.UUID) string {
	return "notifications:" + owner.String()
}

func (h *NotificationHub) Notify(ctx context.Context, owner uuid.UUID, n entity.Notification) {
	n.OwnerID = owner
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	if err := h.redis.Publish(ctx, NotificationChannel(owner), n); err != nil {
		h.logger.ErrorWithContextf(ctx, err, "[Notification] Failed to publish %s for owner %s: %v", n.Kind, owner, err)
	}
}

// Subscribe streams the owner's notifications until ctx is cancelled.
func (h *NotificationHub) Subscribe(ctx context.Context, owner uuid.UUID) <-chan entity.Notification {
	out := make(chan entity.Notification, 16)
	sub := h.redis.Subscribe(ctx, NotificationChannel(owner))

	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n, err := decodeNotification(msg)
				if err != nil {
					h.logger.WarningWithContextf(ctx, "[Notification] Dropping malformed message on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func decodeNotification(msg *redis.Message) (entity.Notification, error) {
	var n entity.Notification
	err := json.Unmarshal([]byte(msg.Payload), &n)
	return n, err
}
