package produce

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tnqbao/gau-marine-service/utils"
)

const (
	StorageExchange = "storage.exchange"

	// OrphanQueue carries objects whose metadata is gone (or never landed)
	// and that must be deleted from the bucket.
	OrphanQueue      = "storage.orphan"
	OrphanRoutingKey = "storage.orphan"

	// SignatureHeader holds the HMAC of the message body, keyed by PRIVATE_KEY.
	SignatureHeader = "X-Signature"
)

// OrphanObjectMessage is sent to the consumer to delete a single object from storage
type OrphanObjectMessage struct {
	ObjectKey string `json:"object_key"`
	OwnerID   string `json:"owner_id"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

type StorageService struct {
	channel   *amqp.Channel
	secretKey string
}

func InitStorageService(channel *amqp.Channel, secretKey string) *StorageService {
	service := &StorageService{
		channel:   channel,
		secretKey: secretKey,
	}

	if err := DeclareStorageTopology(channel); err != nil {
		panic("Failed to declare storage topology: " + err.Error())
	}

	return service
}

// DeclareStorageTopology declares the exchange and queue. The consumer calls it
// too so that either side can start first.
func DeclareStorageTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		StorageExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	_, err = channel.QueueDeclare(
		OrphanQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	return channel.QueueBind(
		OrphanQueue,
		OrphanRoutingKey,
		StorageExchange,
		false,
		nil,
	)
}

func (s *StorageService) ReportOrphan(ctx context.Context, owner uuid.UUID, key, reason string) error {
	now := time.Now()
	message := OrphanObjectMessage{
		ObjectKey: key,
		OwnerID:   owner.String(),
		Reason:    reason,
		Timestamp: now.Unix(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}
	if s.secretKey != "" {
		publishing.Headers = amqp.Table{
			SignatureHeader: utils.SignMessage(s.secretKey, OrphanRoutingKey, message.Timestamp, body),
		}
	}

	return s.channel.PublishWithContext(
		ctx,
		StorageExchange,
		OrphanRoutingKey,
		false,
		false,
		publishing,
	)
}
