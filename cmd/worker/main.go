package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/coldpilot/coldpilot-backend/internal/config"
	"github.com/coldpilot/coldpilot-backend/internal/db"
	"github.com/coldpilot/coldpilot-backend/internal/delivery"
	"github.com/coldpilot/coldpilot-backend/internal/events"
	"github.com/coldpilot/coldpilot-backend/internal/generation"
	"github.com/coldpilot/coldpilot-backend/internal/metrics"
	"github.com/coldpilot/coldpilot-backend/internal/queue"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/service"
	"github.com/coldpilot/coldpilot-backend/internal/worker"
)

func main() {
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

	m := metrics.New()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RedisURL != "" {
		redisPub, err := events.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatal("❌ ", err)
		}
		defer redisPub.Close()
		publisher = redisPub
	}

	var generator generation.Generator = &generation.TemplateGenerator{}
	if cfg.OpenAIAPIKey != "" {
		generator = generation.NewOpenAIGenerator(generation.Config{APIKey: cfg.OpenAIAPIKey}, nil)
	}

	var sender delivery.Sender = &delivery.ConsoleSender{}
	if cfg.SendGridAPIKey != "" {
		sender = delivery.NewSendGridSender(cfg.SendGridAPIKey, nil)
	}

	quotaService := &service.QuotaService{QuotaRepo: quotaRepo, Metrics: m}

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

	drainer := &worker.Drainer{
		ScheduleRepo: scheduleRepo,
		CampaignRepo: campaignRepo,
		LinkRepo:     linkRepo,
		Emails:       emailService,
		Quota:        quotaService,
		Metrics:      m,
		BatchSize:    cfg.DrainBatchSize,
	}

	var publish func(queue.Job) error
	if cfg.AMQPURL != "" {
		pub, consume := mustBroker(cfg.AMQPURL, drainer)
		defer pub.Close()
		go consume()
		publish = pub.PublishJob
	} else {
		log.Println("⚠️ AMQP_URL not set, using in-memory queue")
		publish = inMemoryPublish(drainer)
	}

	poller := worker.NewPoller(drainer, publish, nil)
	if err := poller.Start(); err != nil {
		log.Fatal("Failed to start poller: ", err)
	}
	defer poller.Stop()

	log.Println("Worker running, waiting for messages...")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down worker...")
}

// inMemoryPublish routes jobs through the in-process queue, for development
// without a broker.
func inMemoryPublish(drainer *worker.Drainer) func(queue.Job) error {
	q := queue.NewInMemoryQueue()
	q.Subscribe(queue.TopicEmailSends, func(payload any) error {
		job, ok := payload.(queue.Job)
		if !ok {
			return fmt.Errorf("unexpected payload %T", payload)
		}
		return drainer.ProcessItem(context.Background(), job.QueueItemID)
	})
	return func(job queue.Job) error {
		return q.Publish(queue.TopicEmailSends, job)
	}
}

// mustBroker connects to RabbitMQ and returns the job publisher plus the
// consume loop. Failed jobs are requeued up to 3 times via the retry header.
func mustBroker(url string, drainer *worker.Drainer) (*queue.AMQPPublisher, func()) {
	pub, err := queue.NewAMQPPublisher(url, queue.TopicEmailSends)
	if err != nil {
		log.Fatal("❌ ", err)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ: ", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel: ", err)
	}

	q, err := ch.QueueDeclare(
		queue.TopicEmailSends, // name
		true,                  // durable
		false,                 // delete when unused
		false,                 // exclusive
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue: ", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer: ", err)
	}

	consume := func() {
		ctx := context.Background()
		for d := range msgs {
			var job queue.Job
			if err := json.Unmarshal(d.Body, &job); err != nil {
				log.Println("Invalid job:", err)
				d.Ack(false)
				continue
			}

			if err := drainer.ProcessItem(ctx, job.QueueItemID); err != nil {
				log.Println("Failed to process item:", err)
				var retryCount int
				if d.Headers["x-retry-count"] != nil {
					retryCount, _ = d.Headers["x-retry-count"].(int)
				}
				if retryCount < 3 {
					d.Nack(false, true) // requeue
					continue
				}
			}

			d.Ack(false)
		}
	}

	return pub, consume
}
