package infra

import (
	"context"
	"log"

	"github.com/tnqbao/gau-marine-service/config"
	"github.com/tnqbao/gau-marine-service/infra/produce"
)

type Infra struct {
	Redis                *RedisClient
	Postgres             *PostgresClient
	Logger               *LoggerClient
	Telemetry            *Telemetry
	RabbitMQ             *RabbitMQClient
	AuthorizationService *AuthorizationService
	Produce              *produce.Produce
	Minio                *MinioClient
	Notifications        *NotificationHub
	Serials              *SerialAllocator
}

func InitInfra(cfg *config.Config) *Infra {
	telemetry, err := InitTelemetry(context.Background(), cfg.EnvConfig)
	if err != nil {
		log.Printf("Warning: Failed to initialize telemetry: %v (continuing with stdout logging)", err)
		telemetry = &Telemetry{}
	}

	logger := InitLoggerClient(cfg.EnvConfig, telemetry.LogProvider())
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	produceService := produce.InitProduce(rabbitMQ.Channel, cfg.EnvConfig.PrivateKey)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	minio := InitMinioClient(cfg.EnvConfig)
	if minio == nil {
		panic("Failed to initialize MinIO service")
	}

	return &Infra{
		Redis:                redis,
		Postgres:             postgres,
		Logger:               logger,
		Telemetry:            telemetry,
		RabbitMQ:             rabbitMQ,
		AuthorizationService: InitAuthorizationService(cfg.EnvConfig),
		Produce:              produceService,
		Minio:                minio,
		Notifications:        NewNotificationHub(redis, logger),
		Serials:              NewSerialAllocator(redis),
	}
}

func (i *Infra) Close(ctx context.Context) {
	if err := i.Telemetry.Shutdown(ctx); err != nil {
		log.Printf("Failed to shut down telemetry: %v", err)
	}
	if err := i.RabbitMQ.Close(); err != nil {
		log.Printf("Failed to close RabbitMQ: %v", err)
	}
	if err := i.Redis.Close(); err != nil {
		log.Printf("Failed to close Redis: %v", err)
	}
}
