// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/o4villegas/lead-fuego-sub001/internal/channel"
	"github.com/o4villegas/lead-fuego-sub001/internal/config"
	"github.com/o4villegas/lead-fuego-sub001/internal/controller"
	"github.com/o4villegas/lead-fuego-sub001/internal/db"
	"github.com/o4villegas/lead-fuego-sub001/internal/handler"
	"github.com/o4villegas/lead-fuego-sub001/internal/logger"
	"github.com/o4villegas/lead-fuego-sub001/internal/queue"
	"github.com/o4villegas/lead-fuego-sub001/internal/repository"
	"github.com/o4villegas/lead-fuego-sub001/internal/service"
)

func main() {
	// Load .env
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

	// Init DB
	db.Init(cfg)

	q, err := queue.NewAMQPQueue(cfg.AMQPURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	leadRepo := &repository.LeadRepository{DB: db.DB}
	journeyRepo := &repository.JourneyRepository{DB: db.DB}
	messageRepo := &repository.MessageRepository{DB: db.DB}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		LeadRepo:     leadRepo,
		JourneyRepo:  journeyRepo,
		Queue:        q,
		Logger:       zlog,
	}

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

	reconciler := &service.Reconciler{
		MessageRepo:  messageRepo,
		JourneyRepo:  journeyRepo,
		CampaignRepo: campaignRepo,
		Logger:       zlog,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
		Processor:       processor,
	}

	campaignHandler := &handler.CampaignHandler{
		Service: campaignService,
		Logger:  zlog,
	}

	journeyHandler := &handler.JourneyHandler{
		JourneyRepo: journeyRepo,
		Logger:      zlog,
	}

	webhookHandler := &handler.WebhookHandler{
		Reconciler: reconciler,
		Secret:     cfg.WebhookSecret,
		Logger:     zlog,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaignHandlerWithStats)
	r.Post("/campaigns/{id}/pause", campaignController.PauseCampaign)
	r.Post("/campaigns/{id}/resume", campaignController.ResumeCampaign)
	r.Post("/campaigns/{id}/capture", campaignController.CaptureLead)

	// Journey routes
	r.Get("/journeys/{id}", journeyHandler.GetJourneyHandler)

	// Engine routes
	r.Post("/processor/run", campaignController.RunProcessor)
	r.Post("/webhooks/{provider}", webhookHandler.Receive)

	zlog.Info("🚀 Server running", zap.String("port", cfg.HTTPPort))
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, r))
}
