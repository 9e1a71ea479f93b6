package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"teamup-bot/config"
	"teamup-bot/internal/api"
	"teamup-bot/internal/bot"
	"teamup-bot/internal/db"
	"teamup-bot/internal/notification"
	"teamup-bot/internal/roster"
	"teamup-bot/internal/scheduler"
	"teamup-bot/internal/store"
	"teamup-bot/internal/teams"
	"teamup-bot/internal/telegram"
	"teamup-bot/internal/view"
)

func main() {
	logger := log.New(os.Stdout, "teamupd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Telegram.Token == "" {
		logger.Fatalf("telegram token is not configured; set telegram.token or TELEGRAM_BOT_TOKEN")
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Println("VAPID keys are not configured, web push is disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")
	appStore := store.NewGormStore(gormDB)

	tgAPI, err := telegram.NewAPI(cfg.Telegram.Token, cfg.Telegram.Debug)
	if err != nil {
		logger.Fatalf("failed to connect to telegram: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	renderer := view.NewRenderer(cfg.DefaultLanguage)
	messenger := telegram.NewMessenger(tgAPI, cfg.Telegram.SendRatePerSec)
	admins := telegram.NewAdminChecker(tgAPI, time.Duration(cfg.Telegram.AdminCacheSeconds)*time.Second)
	syncer := view.NewSynchronizer(appStore, renderer, messenger, time.Now)
	rosterMgr := roster.NewManager(appStore, time.Now)
	teamSvc := teams.NewService(appStore, admins, cfg.Session.TTL, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, syncer, webpushOptions)
	workerPool.Start(ctx)

	schedulerSvc := scheduler.NewService(cfg.Scheduler, appStore, workerPool, teamSvc, time.Now)
	go func() {
		if err := schedulerSvc.Run(ctx); err != nil {
			logger.Printf("scheduler stopped: %v", err)
		}
	}()

	handler := bot.NewHandler(appStore, rosterMgr, teamSvc, syncer, renderer, admins)
	tgBot := telegram.NewBot(tgAPI, handler, messenger, cfg.Telegram.PollTimeoutSeconds)
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		tgBot.Run(ctx)
	}()

	router := api.NewRouter(cfg.Server, api.NewHandler(appStore, rosterMgr, workerPool, webpushOptions, time.Now))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		logger.Println("timed out waiting for the bot to finish updates")
	}

	logger.Println("Server gracefully stopped")
}
