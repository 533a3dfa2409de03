package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/config"
	"github.com/unclebandit/bidtracker-backend/internal/db"
	"github.com/unclebandit/bidtracker-backend/internal/logger"
	"github.com/unclebandit/bidtracker-backend/internal/queue"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

// The worker consumes campaign dispatch jobs from RabbitMQ. It is only
// needed when the server runs with QUEUE_DRIVER=amqp.
func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.Server.AppEnv, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	conn, err := db.Connect(cfg.Postgres, lg)
	if err != nil {
		lg.Fatal("Database unavailable", zap.Error(err))
	}
	defer conn.Close()

	q, err := queue.NewAMQPQueue(cfg.Queue.AMQPURL, cfg.Queue.MaxRetries, lg.Named("queue"))
	if err != nil {
		lg.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	outboundRepo := &repository.OutboundMessageRepository{DB: conn}
	campaignService := &service.CampaignService{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		CustomerRepo: &repository.CustomerRepository{DB: conn},
		TemplateRepo: &repository.TemplateRepository{DB: conn},
		OutboundRepo: outboundRepo,
		Queue:        q,
		Log:          lg.Named("campaigns"),
	}

	sender := service.MockSender{SuccessRate: cfg.Worker.SuccessRate}
	worker := service.NewWorker(outboundRepo, campaignService, sender, lg.Named("worker"))
	worker.MaxAttempts = cfg.Queue.MaxRetries + 1
	if err := worker.Start(q); err != nil {
		lg.Fatal("Failed to register consumer", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("Worker running, waiting for messages", zap.String("queue", queue.TopicCampaignSends))
	<-ctx.Done()
	lg.Info("Worker stopping")
}
