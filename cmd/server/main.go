// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coldpilot/coldpilot-backend/internal/config"
	"github.com/coldpilot/coldpilot-backend/internal/controller"
	"github.com/coldpilot/coldpilot-backend/internal/db"
	"github.com/coldpilot/coldpilot-backend/internal/delivery"
	"github.com/coldpilot/coldpilot-backend/internal/events"
	"github.com/coldpilot/coldpilot-backend/internal/generation"
	"github.com/coldpilot/coldpilot-backend/internal/metrics"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ ", err)
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	prospectRepo := &repository.ProspectRepository{DB: conn}
	linkRepo := &repository.LinkRepository{DB: conn}
	scheduleRepo := &repository.ScheduleRepository{DB: conn}
	quotaRepo := &repository.QuotaRepository{DB: conn}
	smtpRepo := &repository.SMTPCredentialRepository{DB: conn}
	holidayRepo := &repository.HolidayRepository{DB: conn}

	m := metrics.New()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RedisURL != "" {
		redisPub, err := events.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		defer redisPub.Close()
		publisher = redisPub
	} else {
		log.Println("⚠️ REDIS_URL not set, transition events disabled")
	}

	var generator generation.Generator = &generation.TemplateGenerator{}
	if cfg.OpenAIAPIKey != "" {
		generator = generation.NewOpenAIGenerator(generation.Config{APIKey: cfg.OpenAIAPIKey}, nil)
	} else {
		log.Println("⚠️ OPENAI_API_KEY not set, using template generator")
	}

	var sender delivery.Sender = &delivery.ConsoleSender{}
	if cfg.SendGridAPIKey != "" {
		sender = delivery.NewSendGridSender(cfg.SendGridAPIKey, nil)
	} else {
		log.Println("⚠️ SENDGRID_API_KEY not set, using console sender")
	}

	quotaService := &service.QuotaService{QuotaRepo: quotaRepo, Metrics: m}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		LinkRepo:     linkRepo,
		ScheduleRepo: scheduleRepo,
	}

	scheduleService := &service.ScheduleService{
		CampaignRepo: campaignRepo,
		ScheduleRepo: scheduleRepo,
		LinkRepo:     linkRepo,
		SMTPRepo:     smtpRepo,
		HolidayRepo:  holidayRepo,
		Quota:        quotaService,
		Metrics:      m,
	}

	emailService := &service.EmailService{
		CampaignRepo: campaignRepo,
		ProspectRepo: prospectRepo,
		LinkRepo:     linkRepo,
		ScheduleRepo: scheduleRepo,
		SMTPRepo:     smtpRepo,
		Quota:        quotaService,
		Generator:    generator,
		Sender:       sender,
		Events:       publisher,
		Metrics:      m,
	}

	campaignController := controller.NewCampaignController(campaignService)
	scheduleController := controller.NewScheduleController(scheduleService, quotaService)
	prospectController := controller.NewProspectController(emailService)

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)

	// Prospect linkage and batch actions
	r.Post("/campaigns/{id}/prospects", prospectController.AddProspects)
	r.Get("/campaigns/{id}/prospects", prospectController.ListProspects)
	r.Delete("/campaigns/{id}/prospects/{prospectID}", prospectController.UnlinkProspect)
	r.Post("/campaigns/{id}/generate", prospectController.GenerateEmails)
	r.Post("/campaigns/{id}/send", prospectController.SendEmails)
	r.Patch("/campaigns/{id}/prospects/{prospectID}/status", prospectController.OverrideStatus)
	r.Get("/campaigns/{id}/transitions", prospectController.ListTransitions)

	// Scheduling
	r.Post("/campaigns/{id}/schedule", scheduleController.CreateSchedule)
	r.Get("/campaigns/{id}/schedule", scheduleController.GetSchedule)
	r.Delete("/campaigns/{id}/schedule", scheduleController.CancelSchedule)

	// Accounts and reference data
	r.Get("/accounts/{accountID}/quota", scheduleController.GetQuota)
	r.Get("/smtp-presets", scheduleController.ListSMTPPresets)

	// Provider webhooks
	r.Post("/events/delivery", prospectController.ReportDeliveryEvent)

	// Operational
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
