package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/o4villegas/lead-fuego-sub001/internal/channel"
	"github.com/o4villegas/lead-fuego-sub001/internal/config"
	"github.com/o4villegas/lead-fuego-sub001/internal/db"
	"github.com/o4villegas/lead-fuego-sub001/internal/logger"
	"github.com/o4villegas/lead-fuego-sub001/internal/queue"
	"github.com/o4villegas/lead-fuego-sub001/internal/repository"
	"github.com/o4villegas/lead-fuego-sub001/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db.Init(cfg)

	// Repositories
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	leadRepo := &repository.LeadRepository{DB: db.DB}
	journeyRepo := &repository.JourneyRepository{DB: db.DB}
	messageRepo := &repository.MessageRepository{DB: db.DB}

	scheduler := &service.Scheduler{
		CampaignRepo: campaignRepo,
		LeadRepo:     leadRepo,
		JourneyRepo:  journeyRepo,
		MessageRepo:  messageRepo,
		Logger:       zlog,
	}

	processor := &service.Processor{
		MessageRepo:  messageRepo,
		JourneyRepo:  journeyRepo,
		CampaignRepo: campaignRepo,
		Scheduler:    scheduler,
		Adapters: []channel.Adapter{
			channel.NewSMSAdapter(channel.MockSendFunc("sms")),
			channel.NewEmailAdapter(channel.MockSendFunc("email")),
		},
		Logger:      zlog,
		BatchSize:   cfg.BatchSize,
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
		BackoffCap:  cfg.BackoffCap(),
		BatchDelay:  cfg.BatchDelay(),
		SendTimeout: cfg.SendTimeout(),
	}

	// Connect to RabbitMQ for lead-captured triggers
	q, err := queue.NewAMQPQueue(cfg.AMQPURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	err = q.Subscribe(queue.TopicLeadCaptured, func(payload any) error {
		event, err := queue.DecodeLeadCaptured(payload)
		if err != nil {
			zlog.Warn("invalid lead_captured payload, dropping", zap.Error(err))
			return nil // no retry, the payload cannot improve
		}
		_, err = scheduler.StartJourney(event.LeadID, event.CampaignID, event.CapturedAt)
		return err
	})
	if err != nil {
		zlog.Fatal("failed to subscribe to lead_captured", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog.Info("worker running",
		zap.Duration("interval", cfg.ProcessorInterval()),
		zap.Int("batch_size", cfg.BatchSize),
	)

	// Cron-style: each tick is one bounded run. Runs may overlap a slow
	// predecessor; the claim step makes that safe.
	ticker := time.NewTicker(cfg.ProcessorInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go func() {
				summary, err := processor.Run(ctx)
				if err != nil {
					zlog.Error("processor run aborted", zap.Error(err))
					return
				}
				zlog.Info("processor run finished",
					zap.Int("sent", summary.Sent),
					zap.Int("failed", summary.Failed),
					zap.Int("retried", summary.Retried),
					zap.Int("skipped", summary.Skipped),
				)
			}()
		case <-ctx.Done():
			zlog.Info("worker shutting down")
			return
		}
	}
}
