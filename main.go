package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/cache"
	"github.com/arturocano02/FarmDirect-sub000/consumer"
	"github.com/arturocano02/FarmDirect-sub000/controllers"
	"github.com/arturocano02/FarmDirect-sub000/database"
	"github.com/arturocano02/FarmDirect-sub000/kafka"
	"github.com/arturocano02/FarmDirect-sub000/logger"
	"github.com/arturocano02/FarmDirect-sub000/middleware"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/arturocano02/FarmDirect-sub000/routes"
	"github.com/arturocano02/FarmDirect-sub000/sender"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/arturocano02/FarmDirect-sub000/templates"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "order-service"

func main() {
	ctx := context.Background()

	cfg, err := LoadConfig(ctx)
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	var logSink io.Writer
	if cfg.CloudWatchEnabled && awsErr == nil {
		if w, err := awspkg.NewLogsWriter(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName); err == nil {
			logSink = w
		}
	}
	log, err := logger.New(cfg.AppEnv, logSink)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if awsErr != nil {
		log.Warn("AWS config unavailable; SNS, SQS and CloudWatch disabled", zap.Error(awsErr))
	}
	metrics := awspkg.NewMetricsClient(awsCfg, "FarmDirect/Orders", cfg.CloudWatchEnabled && awsErr == nil)

	// Database
	db, err := database.Connect(database.Settings{
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Name:     cfg.Postgres.DB,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		SSLMode:  cfg.Postgres.SSLMode,
		TimeZone: cfg.Postgres.TimeZone,
	}, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}

	orderRepo := repository.NewGormOrderRepository(db)
	eventRepo := repository.NewGormEventRepository(db)
	farmRepo := repository.NewGormFarmRepository(db)
	profileRepo := repository.NewGormProfileRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// Senders. A missing provider leaves the channel nil so notifications
	// fall back to the outbox.
	var channels services.Channels
	smtpSender, err := sender.NewSMTPSender(sender.SMTPSettings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.Fatal("Failed to init SMTP sender", zap.Error(err))
	}
	if smtpSender != nil {
		channels.Email = smtpSender
	} else {
		log.Warn("SMTP not configured; email notifications go to the outbox")
	}
	twilioSender, err := sender.NewTwilioSender(sender.TwilioSettings{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		FromNumber: cfg.TwilioFromNumber,
	})
	if err != nil {
		log.Fatal("Failed to init Twilio sender", zap.Error(err))
	}
	if twilioSender != nil {
		channels.SMS = twilioSender
	}

	tmpls, err := templates.Load()
	if err != nil {
		log.Fatal("Failed to load notification templates", zap.Error(err))
	}

	// Lifecycle publication
	var snsPublisher awspkg.SNSPublisher
	if cfg.OrderSNSTopicArn != "" && awsErr == nil {
		snsPublisher = awspkg.NewSNSClient(awsCfg)
	}
	var producer kafka.ProducerAPI
	var kafkaProducer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer = kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, log)
		producer = kafkaProducer
	}
	publisher := services.NewLifecyclePublisher(snsPublisher, cfg.OrderSNSTopicArn, producer, log)

	// Services
	gate := services.NewAuthorizationGate(farmRepo)
	dispatcher := services.NewNotificationDispatcher(channels, tmpls, outboxRepo, profileRepo, farmRepo, cfg.AdminAlertEmail, metrics, log)
	statusService := services.NewOrderStatusService(orderRepo, gate, services.NewAuditLogger(eventRepo, log), dispatcher, publisher, metrics, log)
	orderService := services.NewOrderService(orderRepo, eventRepo, farmRepo, gate, dispatcher, publisher, metrics, log)
	outboxService := services.NewOutboxService(outboxRepo, channels, cfg.OutboxMaxAttempts, log)
	roleResolver := services.NewRoleResolver(cfg.AdminEmails, profileRepo, log)

	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	var workers sync.WaitGroup

	if awsErr == nil && cfg.CheckoutQueueURL != "" {
		var guard consumer.CheckoutGuard
		if cfg.RedisURL != "" {
			redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				log.Warn("Redis unavailable; checkout redelivery is not deduplicated", zap.Error(err))
			} else {
				defer redisClient.Close()
				guard = cache.NewCheckoutGuard(redisClient, cfg.CheckoutDedupeTTL)
			}
		}
		poller := awspkg.NewSQSPoller(awsCfg, cfg.CheckoutQueueURL, "checkout", log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			poller.Start(workerCtx, consumer.NewCheckoutHandler(orderService, guard, log))
		}()
	}
	if awsErr == nil && cfg.DeliveryQueueURL != "" {
		poller := awspkg.NewSQSPoller(awsCfg, cfg.DeliveryQueueURL, "delivery", log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			poller.Start(workerCtx, consumer.NewDeliveryHandler(statusService, log))
		}()
	}
	workers.Add(1)
	go func() {
		defer workers.Done()
		outboxService.Start(workerCtx, cfg.OutboxRelayInterval)
	}()

	limiter := middleware.NewRateLimiter(rate.Every(time.Minute/60), 20, 5*time.Minute)
	go limiter.StartCleanup(workerCtx)

	// Router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MetricsMiddleware(metrics, serviceName))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	routes.RegisterRoutes(r,
		controllers.NewOrderController(statusService, orderService, log),
		controllers.NewOutboxController(outboxService),
		routes.Deps{
			Tokens:        middleware.NewTokenParser(cfg.JWTSecret),
			RoleResolver:  roleResolver,
			MutationLimit: limiter,
		},
	)

	// HTTP server
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info("Order service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	workerCancel()
	workers.Wait()

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("Kafka writer close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		log.Error("Database close error", zap.Error(err))
	}

	log.Info("Order service stopped gracefully")
}
