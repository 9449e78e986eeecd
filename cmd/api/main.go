package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	notifapp "github.com/propdev-core/internal/application/notification"
	tenantapp "github.com/propdev-core/internal/application/tenant"
	"github.com/propdev-core/internal/config"
	"github.com/propdev-core/internal/infrastructure/dynamo"
	jwtinfra "github.com/propdev-core/internal/infrastructure/jwt"
	"github.com/propdev-core/internal/infrastructure/redisq"
	s3infra "github.com/propdev-core/internal/infrastructure/s3"
	"github.com/propdev-core/internal/infrastructure/smtp"
	"github.com/propdev-core/internal/infrastructure/sns"
	transporthttp "github.com/propdev-core/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(cfg)
	if err != nil {
		log.Fatalf("dynamo client: %v", err)
	}
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for tenant branding assets.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS sender for SMS and push (optional — graceful fallback).
	var snsSender *sns.Sender
	if sender, err := sns.NewSender(cfg); err == nil {
		snsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	tenantRepo := dynamo.NewTenantRepo(dynamoClient, cfg.DynamoTables.Tenants)
	memberRepo := dynamo.NewMemberRepo(dynamoClient, cfg.DynamoTables.Members)
	templateRepo := dynamo.NewTemplateRepo(dynamoClient, cfg.DynamoTables.Templates)
	messageRepo := dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Messages)
	recipientRepo := dynamo.NewRecipientRepo(dynamoClient, cfg.DynamoTables.Recipients)
	auditRepo := dynamo.NewAuditRepo(dynamoClient, cfg.DynamoTables.AuditEvents)

	tenantDeps := tenantapp.ServiceDeps{
		TenantRepo: tenantRepo,
		MemberRepo: memberRepo,
		AuditSink:  auditRepo,
		AssetStore: s3Store,
	}
	if jwtProvider != nil {
		tenantDeps.TokenSigner = jwtProvider
	}
	tenantSvc := tenantapp.NewService(tenantDeps)

	// Durable queue when Redis is configured, in-process FIFO otherwise.
	var queue notifapp.MessageQueue
	if cfg.RedisAddr != "" {
		queue = redisq.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisQueueKey)
		log.Printf("Using Redis queue at %s", cfg.RedisAddr)
	} else {
		queue = notifapp.NewMemoryQueue()
		log.Println("REDIS_ADDR not set, using in-memory queue")
	}

	senders := []notifapp.ChannelSender{
		&notifapp.EmailSender{Mailer: mailer},
		&notifapp.InAppSender{},
		notifapp.NewWebhookSender(tenantSvc),
	}
	if snsSender != nil {
		senders = append(senders,
			&notifapp.SMSSender{Sender: snsSender},
			&notifapp.PushSender{Sender: snsSender},
		)
	}

	notifSvc := notifapp.NewService(notifapp.ServiceDeps{
		TemplateRepo:  templateRepo,
		MessageRepo:   messageRepo,
		RecipientRepo: recipientRepo,
		Quota:         tenantSvc,
		Queue:         queue,
		Senders:       senders,
		AuditSink:     auditRepo,
	})

	procCtx, stopProcessor := context.WithCancel(context.Background())
	processor := notifapp.NewProcessor(notifSvc, cfg.QueuePollInterval, cfg.QueueBatchSize)
	go processor.Start(procCtx)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		TenantSvc:   tenantSvc,
		NotifSvc:    notifSvc,
		JWTProvider: jwtProvider,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopProcessor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
