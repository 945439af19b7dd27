package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"renewal_reminder_bot/internal/app"
	"renewal_reminder_bot/internal/domain/clock"
	"renewal_reminder_bot/internal/infra/config"
	idb "renewal_reminder_bot/internal/infra/database"
	"renewal_reminder_bot/internal/infra/logger"
	"renewal_reminder_bot/internal/infra/scheduler"
	"renewal_reminder_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	appLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Admin chat: %d", cfg.LogLevel, cfg.Environment, cfg.AdminChatID)

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	appLogger.Info("Database connection established.")

	caseRepo := idb.NewPostgresCaseRepository(db)
	customerRepo := idb.NewPostgresCustomerRepository(db)
	centerRepo := idb.NewPostgresCenterRepository(db)
	messageRepo := idb.NewPostgresMessageRepository(db)
	auditRepo := idb.NewPostgresAuditRepository(db)

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			appLogger.Errorf("telebot: %v", err)
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		appLogger.Fatalf("Could not create Telegram bot: %v", err)
	}

	clk := clock.NewSystem(cfg.Timezone)
	gateway := telegram.NewTelebotGateway(bot, messageRepo, clk, appLogger)
	notifier := telegram.NewTelebotNotifier(bot, cfg.AdminChatID)

	outreach := app.NewOutreach(caseRepo, customerRepo, centerRepo, gateway, auditRepo, notifier, clk, appLogger, cfg.SendDelay)
	dailyDriver := app.NewDailyDriver(caseRepo, outreach, notifier, clk, appLogger, cfg.GraceWindow)
	followUpDriver := app.NewFollowUpDriver(
		caseRepo, customerRepo, centerRepo, gateway, auditRepo, outreach, clk, appLogger,
		app.BusinessHours{Start: cfg.BusinessHoursStart, End: cfg.BusinessHoursEnd},
		cfg.FollowUpDwell,
	)

	telegram.RegisterInboundHandlers(bot, caseRepo, customerRepo, messageRepo, clk, appLogger)
	appLogger.Info("Inbound reply handlers registered.")

	// One-shot recovery pass. Runs before the scheduler so routine jobs see
	// a reconciled population; must not be left enabled after use.
	if cfg.RunBackfill {
		appLogger.Warn("RUN_BACKFILL enabled: executing one-shot catch-up pass. Disable the flag after this run.")
		backfill := app.NewBackfillDriver(caseRepo, outreach, notifier, clk, appLogger)
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		if _, err := backfill.Run(ctx); err != nil {
			appLogger.Errorf("Backfill run reported errors: %v", err)
		}
		cancel()
	}

	sched := scheduler.NewRenewalScheduler(dailyDriver, followUpDriver, appLogger, cfg.Timezone, cfg.CronSpecDaily, cfg.CronSpecFollowUp)
	sched.Start()

	appLogger.Info("Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down application...")
	sched.Stop()
	bot.Stop()
	appLogger.Info("Application shut down gracefully.")
}
