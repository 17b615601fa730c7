package produce

import amqp "github.com/rabbitmq/amqp091-go"

type Produce struct {
	StorageService *StorageService
}

// secretKey signs outgoing messages so consumers can reject forged ones.
func InitProduce(channel *amqp.Channel, secretKey string) *Produce {
	storageService := InitStorageService(channel, secretKey)
	if storageService == nil {
		panic("Failed to initialize Storage produce service")
	}

	return &Produce{
		StorageService: storageService,
	}
}
