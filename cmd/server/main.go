// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/config"
	"github.com/unclebandit/bidtracker-backend/internal/controller"
	"github.com/unclebandit/bidtracker-backend/internal/db"
	"github.com/unclebandit/bidtracker-backend/internal/handler"
	"github.com/unclebandit/bidtracker-backend/internal/logger"
	"github.com/unclebandit/bidtracker-backend/internal/queue"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.Server.AppEnv, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg.Postgres, lg)
	if err != nil {
		lg.Fatal("Database unavailable", zap.Error(err))
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn, lg); err != nil {
		lg.Fatal("Migration failed", zap.Error(err))
	}

	customerRepo := &repository.CustomerRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	outboundRepo := &repository.OutboundMessageRepository{DB: conn}
	followUpRepo := &repository.FollowUpRepository{DB: conn}
	statsRepo := &repository.StatsRepository{DB: conn}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		CustomerRepo: customerRepo,
		TemplateRepo: templateRepo,
		OutboundRepo: outboundRepo,
		Log:          lg.Named("campaigns"),
	}

	// With the memory driver the dispatch worker runs in this process;
	// with amqp the server only publishes and cmd/worker consumes.
	switch cfg.Queue.Driver {
	case "amqp":
		q, err := queue.NewAMQPQueue(cfg.Queue.AMQPURL, cfg.Queue.MaxRetries, lg.Named("queue"))
		if err != nil {
			lg.Fatal("Queue unavailable", zap.Error(err))
		}
		defer q.Close()
		campaignService.Queue = q
	default:
		q := queue.NewInMemoryQueue(lg.Named("queue"))
		q.MaxRetries = cfg.Queue.MaxRetries
		campaignService.Queue = q
		sender := service.MockSender{SuccessRate: cfg.Worker.SuccessRate}
		worker := service.NewWorker(outboundRepo, campaignService, sender, lg.Named("worker"))
		worker.MaxAttempts = cfg.Queue.MaxRetries + 1
		if err := worker.Start(q); err != nil {
			lg.Fatal("Failed to start worker", zap.Error(err))
		}
		defer q.Wait()
	}

	router := &handler.Router{
		Customers: &controller.CustomerController{
			CustomerService: &service.CustomerService{CustomerRepo: customerRepo, Log: lg.Named("customers")},
			Log:             lg,
		},
		Templates: &controller.TemplateController{
			TemplateService: &service.TemplateService{TemplateRepo: templateRepo, Log: lg.Named("templates")},
			Log:             lg,
		},
		Campaigns: &controller.CampaignController{
			CampaignService: campaignService,
			Log:             lg,
		},
		FollowUps: &controller.FollowUpController{
			FollowUpService: &service.FollowUpService{
				FollowUpRepo: followUpRepo,
				CustomerRepo: customerRepo,
				TemplateRepo: templateRepo,
				Log:          lg.Named("followups"),
			},
			Log: lg,
		},
		Dashboard:      &handler.DashboardHandler{Stats: &service.DashboardService{StatsRepo: statsRepo}, Log: lg},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            lg.Named("http"),
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("Server running", zap.String("addr", srv.Addr), zap.String("queue_driver", cfg.Queue.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("Graceful shutdown failed", zap.Error(err))
	}
}
