package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"careline/internal/audit"
	"careline/internal/auth"
	"careline/internal/callflow"
	"careline/internal/catalog"
	"careline/internal/config"
	"careline/internal/httpapi"
	"careline/internal/notify"
	"careline/internal/prompts"
	"careline/internal/queue"
	"careline/internal/reporting"
	"careline/internal/statestore"
	"careline/internal/telephony"
	"careline/internal/transfer"
	"careline/pkg/logger"
	"careline/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Best effort; deployments provide real env.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	loc, err := cfg.CallLocation()
	if err != nil {
		log.Error("timezone load failed", "err", err)
		os.Exit(1)
	}
	variant, err := telephony.ParseVariant(cfg.Voice.Variant)
	if err != nil {
		log.Error("voice variant invalid", "err", err)
		os.Exit(1)
	}
	texts, err := prompts.Load(cfg.Call.PromptsFile)
	if err != nil {
		log.Error("prompts load failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	cat, err := catalog.NewHTTPClient(catalog.ClientConfig{
		BaseURL:    cfg.Catalog.BaseURL,
		APIKey:     cfg.Catalog.APIKey,
		Timeout:    cfg.Catalog.Timeout,
		RetryCount: cfg.Catalog.RetryCount,
	})
	if err != nil {
		log.Error("catalog init failed", "err", err)
		os.Exit(1)
	}

	states := statestore.NewRedis(rdb, cfg.Call.StateTTL)

	holdQueue := queue.NewService(queue.NewPostgres(db), time.Duration(cfg.Queue.AvgHandleSeconds)*time.Second)
	janitor, err := queue.NewJanitor(holdQueue, cfg.Queue.SweepInterval, cfg.Queue.MaxHoldAge, log)
	if err != nil {
		log.Error("janitor init failed", "err", err)
		os.Exit(1)
	}

	reports := reporting.NewService(reporting.NewPostgres(db))
	auditTrail := audit.NewService(audit.NewPostgres(db))
	overrides := transfer.NewRedisOverrideStore(rdb)

	orch := transfer.NewOrchestrator(holdQueue, transfer.Config{
		EscalationNumber: cfg.Call.EscalationNumber,
		DialTimeout:      cfg.Call.DialTimeoutSeconds,
		HoldQueue:        cfg.Queue.HoldName,
	}, log)
	orch.UseOverrides(overrides, transfer.AuditAdapter{Audit: auditTrail})

	// Confirmation texts are optional; without a backend the engine
	// simply never notifies.
	var notifier callflow.Notifier
	var dispatcher *notify.Dispatcher
	if cfg.Notify.BaseURL != "" {
		sender := notify.NewHTTPSender(notify.ClientConfig{
			BaseURL:    cfg.Notify.BaseURL,
			APIKey:     cfg.Notify.APIKey,
			Timeout:    cfg.Notify.Timeout,
			RetryCount: cfg.Notify.RetryCount,
		})
		dispatcher = notify.NewDispatcher(sender, notify.DispatcherConfig{}, log)
		notifier = dispatcher
	}

	engine := callflow.New(states, cat, orch, notifier, texts, callflow.Config{
		AttemptLimit:         cfg.Call.AttemptLimit,
		MinConfidence:        cfg.Call.MinConfidence,
		VoiceMode:            cfg.Call.VoiceMode,
		MaxListedJobs:        cfg.Call.MaxListedJobs,
		MaxListedOccurrences: cfg.Call.MaxListedOccurrences,
		GatherTimeout:        cfg.Call.GatherTimeoutSeconds,
		Location:             loc,
	}, log)

	voice := telephony.Handler{
		Engine: engine,
		Builder: telephony.NewBuilder(telephony.BuilderConfig{
			Variant:       variant,
			Voice:         cfg.Voice.Name,
			Language:      cfg.Voice.Language,
			CollectURL:    "/voice/collect",
			DialResultURL: "/voice/dial-result",
			WaitURL:       "/voice/wait",
			StreamURL:     cfg.Voice.StreamURL,
		}),
		States:    states,
		Queue:     holdQueue,
		Reports:   reports,
		Texts:     texts,
		HoldMusic: cfg.Voice.HoldMusicURL,
	}
	if cfg.Call.MaxConcurrent > 0 {
		voice.Gate = telephony.NewCallGate(rdb, cfg.Call.MaxConcurrent, 0)
	}

	api := httpapi.Handlers{
		Auth:      tokens,
		Queue:     holdQueue,
		Reports:   reports,
		Overrides: overrides,
		Audit:     auditTrail,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz", "/voice/wait"))

	registerRoutes(r, routeDeps{
		cfg:    cfg,
		tokens: tokens,
		voice:  voice,
		api:    api,
	})

	janitor.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	janitor.Stop()
	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Warn("notify drain incomplete", "err", err)
		}
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
