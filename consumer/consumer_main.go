package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tnqbao/gau-marine-service/config"
	"github.com/tnqbao/gau-marine-service/consumer/worker"
	infraPkg "github.com/tnqbao/gau-marine-service/infra"
	"github.com/tnqbao/gau-marine-service/repository"
)

func main() {
	err := godotenv.Load("../.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageConsumer := worker.NewStorageConsumer(infra.RabbitMQ.Channel, infra, cfg.EnvConfig.PrivateKey)
	if err := storageConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Storage consumer: %v", err)
		log.Fatalf("Failed to start Storage consumer: %v", err)
	}

	sweeper := worker.NewSweeper(infra, repo, cfg.EnvConfig.Sweep.Interval, cfg.EnvConfig.Sweep.Grace)
	sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	infra.Close(shutdownCtx)

	infra.Logger.InfoWithContextf(shutdownCtx, "Consumer exited properly")
}
