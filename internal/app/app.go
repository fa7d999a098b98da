package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	channeladapter "github.com/magnus-flipper/sniper-service/internal/adapter/channel"
	mongoadapter "github.com/magnus-flipper/sniper-service/internal/adapter/mongo"
	natsadapter "github.com/magnus-flipper/sniper-service/internal/adapter/nats"
	redisadapter "github.com/magnus-flipper/sniper-service/internal/adapter/redis"
	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/magnus-flipper/sniper-service/internal/platform/metrics"
	"github.com/magnus-flipper/sniper-service/internal/service"
	"github.com/magnus-flipper/sniper-service/internal/worker"
	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg           *config.Config
	log           logger.Logger
	scheduler     *worker.Scheduler
	analyzer      *worker.AnalyzerWorker
	alerts        *worker.AlertsWorker
	metricsServer *http.Server
	mongoClient   *mongo.Client
	redisClient   *redis.Client
	natsConn      *natsgo.Conn
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Infof("Configuration loaded: Env=%s, roles: scheduler=%t analyzer=%t alerts=%t",
		cfg.Env, cfg.Roles.Scheduler, cfg.Roles.Analyzer, cfg.Roles.Alerts)

	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized")

	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	appLogger.Info("MongoDB client initialized")

	natsConn, err := natsadapter.NewConnection(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	appLogger.Info("NATS connection established")

	publisher, err := natsadapter.NewNATSPublisher(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize NATS publisher: %w", err)
	}
	consumer, err := natsadapter.NewConsumer(natsConn, appLogger, cfg.Worker.Concurrency, cfg.Worker.JobTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize NATS consumer: %w", err)
	}

	pipelineMetrics := metrics.NewPipelineMetrics("sniper_service")

	fingerprintCache := redisadapter.NewFingerprintCacheRepository(redisClient, cfg.Fingerprint.TTL)
	budgetStore := redisadapter.NewBudgetCounterStore(redisClient)
	scanLease := redisadapter.NewScanLeaseRepository(redisClient)
	profileRepo := mongoadapter.NewProfileRepository(mongoClient, cfg.MongoDB)
	channelRepo := mongoadapter.NewChannelRepository(mongoClient, cfg.MongoDB)
	outcomeRepo := mongoadapter.NewOutcomeRepository(mongoClient, cfg.MongoDB)

	valuation := service.NewValuationService(service.DefaultValuationConfig())
	detector := service.NewChangeDetector(fingerprintCache, appLogger, pipelineMetrics)
	budget := service.NewBudgetLimiter(budgetStore, appLogger, pipelineMetrics, service.BudgetLimiterConfig{
		RatePerMin:      cfg.Budget.AlertsRatePerMin,
		BurstMultiplier: cfg.Budget.BurstMultiplier,
		BucketExpiry:    cfg.Budget.BucketExpiry,
	})

	senders := buildSenders(cfg, appLogger)
	dispatcher := service.NewAlertDispatcher(budget, senders, outcomeRepo, appLogger, pipelineMetrics)

	application := &App{
		cfg:         cfg,
		log:         appLogger,
		mongoClient: mongoClient,
		redisClient: redisClient,
		natsConn:    natsConn,
	}

	if cfg.Roles.Scheduler {
		application.scheduler = worker.NewScheduler(profileRepo, scanLease, publisher, appLogger, pipelineMetrics, cfg.Scheduler)
	}
	if cfg.Roles.Analyzer {
		application.analyzer = worker.NewAnalyzerWorker(consumer, publisher, valuation, detector, appLogger)
	}
	if cfg.Roles.Alerts {
		application.alerts = worker.NewAlertsWorker(consumer, channelRepo, dispatcher, appLogger)
	}
	if cfg.Metrics.Enabled {
		application.metricsServer = metrics.NewServer(cfg.Metrics.Port, pipelineMetrics, appLogger)
	}

	return application, nil
}

// buildSenders wires every channel whose credentials are configured. A
// missing channel config is a deployment choice, not an error; alerts to
// that channel type fail with a recorded outcome.
func buildSenders(cfg *config.Config, log logger.Logger) []channeladapter.Sender {
	var senders []channeladapter.Sender

	if cfg.Telegram.BotToken != "" {
		telegram, err := channeladapter.NewTelegramSender(cfg.Telegram)
		if err != nil {
			log.Warnf("Telegram sender not available: %v", err)
		} else {
			senders = append(senders, telegram)
		}
	}
	if cfg.SMTP.Host != "" {
		email, err := channeladapter.NewEmailSender(cfg.SMTP, log)
		if err != nil {
			log.Warnf("Email sender not available: %v", err)
		} else {
			senders = append(senders, email)
		}
	}
	if cfg.WhatsApp.APIURL != "" {
		whatsapp, err := channeladapter.NewWhatsAppSender(cfg.WhatsApp)
		if err != nil {
			log.Warnf("WhatsApp sender not available: %v", err)
		} else {
			senders = append(senders, whatsapp)
		}
	}
	if cfg.Push.GatewayURL != "" {
		push, err := channeladapter.NewPushSender(cfg.Push)
		if err != nil {
			log.Warnf("Push sender not available: %v", err)
		} else {
			senders = append(senders, push)
		}
	}

	return senders
}

func (a *App) Run() {
	a.log.Info("Starting pipeline components...")

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Errorf("Metrics server error: %v", err)
			}
		}()
	}

	if a.analyzer != nil {
		if err := a.analyzer.Start(); err != nil {
			a.log.Fatalf("Failed to start analyzer worker: %v", err)
		}
	}
	if a.alerts != nil {
		if err := a.alerts.Start(); err != nil {
			a.log.Fatalf("Failed to start alerts worker: %v", err)
		}
	}
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			a.log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
		a.log.Info("Scheduler stopped")
	}
	if a.analyzer != nil {
		a.analyzer.Stop()
	}
	if a.alerts != nil {
		a.alerts.Stop()
	}
	if err := metrics.Shutdown(shutdownCtx, a.metricsServer); err != nil {
		a.log.Errorf("Error during metrics server shutdown: %v", err)
	}

	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed")
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed")
		}
	}

	a.log.Info("Application shut down successfully")
}
