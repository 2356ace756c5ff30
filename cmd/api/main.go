package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/escalation-service/internal/api/http"
	"github.com/spec-kit/escalation-service/internal/api/http/handlers"
	"github.com/spec-kit/escalation-service/internal/auth"
	"github.com/spec-kit/escalation-service/internal/channel"
	"github.com/spec-kit/escalation-service/internal/chatbot"
	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/escalation"
	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/inbound"
	"github.com/spec-kit/escalation-service/internal/observability"
	"github.com/spec-kit/escalation-service/internal/persistence"
	"github.com/spec-kit/escalation-service/internal/repository"
	"github.com/spec-kit/escalation-service/internal/service"
	"github.com/spec-kit/escalation-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	clientRepo := repository.NewClientRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	sessionStore := persistence.NewSessionStore(redis, logger)

	metrics := observability.NewMetrics()

	dispatcher := events.NewInMemoryDispatcher()
	callbackService := service.NewSessionCallbackService(sessionStore, clientRepo, dispatcher, logger)

	smsSender := channel.NewSMSSender(cfg.SMS, metrics, logger)
	pushSender := channel.NewPushSender(cfg.Push, metrics, logger)

	orchestrator := escalation.NewOrchestrator(map[domain.Channel]escalation.Messenger{
		domain.ChannelSMS:  smsSender,
		domain.ChannelPush: pushSender,
	}, sessionStore, callbackService, logger)

	formatter := chatbot.NewTemplateFormatter(map[string]chatbot.TemplateSet{
		"en": {ResetPhrase: cfg.Escalation.ResetPhrase},
	})
	replyRouter := inbound.NewRouter(sessionStore, smsSender, callbackService, formatter, logger)

	alertService := service.NewAlertService(service.AlertDependencies{
		ClientRepo: clientRepo,
		Sessions:   sessionStore,
		Escalator:  orchestrator,
		Defaults:   cfg.Escalation,
		Logger:     logger,
	})

	auditService := service.NewAuditService(auditRepo, dispatcher, logger)
	worker.StartAuditWorker(auditService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Alerts:         handlers.NewAlertsHandler(alertService),
		Webhooks:       handlers.NewWebhooksHandler(replyRouter),
		Sessions:       handlers.NewSessionsHandler(alertService, auditService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
