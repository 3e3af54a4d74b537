package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/ventanilla/servicedesk/internal/api/http"
	"github.com/ventanilla/servicedesk/internal/api/http/handlers"
	"github.com/ventanilla/servicedesk/internal/config"
	"github.com/ventanilla/servicedesk/internal/directory"
	"github.com/ventanilla/servicedesk/internal/events"
	"github.com/ventanilla/servicedesk/internal/identity"
	"github.com/ventanilla/servicedesk/internal/notification"
	"github.com/ventanilla/servicedesk/internal/observability"
	"github.com/ventanilla/servicedesk/internal/persistence"
	"github.com/ventanilla/servicedesk/internal/repository"
	"github.com/ventanilla/servicedesk/internal/service"
	"github.com/ventanilla/servicedesk/internal/sla"
	"github.com/ventanilla/servicedesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	metrics := observability.NewMetrics()
	calendar := sla.NewCalendar(cfg.SLA.HolidayDates)
	ticketRepo := repository.NewTicketRepository(postgres.PoolHandle())

	tokens := identity.NewTokenManager(cfg.Auth.JWTSecret)
	authorizer := identity.NewAuthorizer(cfg.Auth)
	authMiddleware := identity.NewMiddleware(tokens, authorizer)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := notification.NewSMTPMailer(cfg.SMTP)
	directoryClient := directory.NewClient(cfg.Director, redisStore.Client, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Calendar:   calendar,
		Authorizer: authorizer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	reminderService := service.NewReminderService(service.ReminderDependencies{
		TicketRepo: ticketRepo,
		Mailer:     mailer,
		Dedupe:     redisStore.Client,
		Metrics:    metrics,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(dispatcher, mailer, logger)
	notificationService.RegisterHandlers()

	if cfg.Reminder.WorkerEnabled {
		reminderWorker := worker.NewReminderWorker(reminderService, cfg.Reminder.LookaheadDays, cfg.Reminder.Interval(), logger)
		go reminderWorker.Start(ctx)
		logger.Info("reminder worker started",
			zap.Int("lookahead_days", cfg.Reminder.LookaheadDays),
			zap.Duration("interval", cfg.Reminder.Interval()))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: apihttp.ErrorHandler(logger, metrics),
	})
	apihttp.RegisterRoutes(app, apihttp.RouterDependencies{
		Logger:         logger,
		Metrics:        metrics,
		Auth:           authMiddleware,
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Admin:          handlers.NewAdminHandler(ticketService),
		Reminders:      handlers.NewRemindersHandler(reminderService, cfg.Reminder),
		Directory:      handlers.NewDirectoryHandler(directoryClient, ticketRepo),
		Health:         handlers.NewHealthHandler(postgres, redisStore, cfg.App.Version),
		RequestTimeout: cfg.App.RequestTimeout(),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
