// Package main is the entry point for the assistant core server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/overlay-ai/assistant-core/internal/config"
	"github.com/overlay-ai/assistant-core/internal/handler"
	"github.com/overlay-ai/assistant-core/internal/history"
	"github.com/overlay-ai/assistant-core/internal/intent"
	"github.com/overlay-ai/assistant-core/internal/llm"
	"github.com/overlay-ai/assistant-core/internal/media"
	"github.com/overlay-ai/assistant-core/internal/middleware"
	natsclient "github.com/overlay-ai/assistant-core/internal/nats"
	"github.com/overlay-ai/assistant-core/internal/orchestrator"
	"github.com/overlay-ai/assistant-core/internal/session"
	"github.com/overlay-ai/assistant-core/internal/stream"
	"github.com/overlay-ai/assistant-core/internal/visual"
	"github.com/overlay-ai/assistant-core/pkg/logger"
	"github.com/overlay-ai/assistant-core/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting assistant core")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-core", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Event bus and history sink. With NATS configured, tokens ride core
	// NATS subjects and history lives in a capped JetStream stream;
	// otherwise both stay in-process.
	var (
		nc          *natsclient.Client
		bus         stream.Bus
		historySink history.Sink
	)
	if cfg.NATSURL != "" {
		nc, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer nc.Close()

		bus = stream.NewNATSBus(nc.Conn())

		js := history.NewJetStreamSink(nc.JetStream(), cfg.HistoryLimit)
		if err := js.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure history stream", zap.Error(err))
			os.Exit(1)
		}
		historySink = js
	} else {
		log.Info("no NATS URL configured, using in-process bus and history")
		bus = stream.NewLocalBus()
		historySink = history.NewMemorySink(cfg.HistoryLimit)
	}

	// Language model client. The assistant still serves control turns when
	// no provider is configured; chat turns report the missing model.
	var llmClient llm.Client
	switch {
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	default:
		log.Warn("no LLM API key configured, chat turns will fail")
	}
	if err != nil {
		log.Warn("failed to create LLM client, chat turns will fail", zap.Error(err))
		llmClient = nil
	}

	router := intent.NewRouter(cfg.VolumeStep)
	classifier := intent.NewModelClassifier(llmClient, cfg.ClassifierModel, cfg.ClassifyTimeout, log)

	transport := media.NewHTTPTransport(cfg.MediaServerRoot)
	invoker := media.NewInvoker(transport, media.NewMemoryDeviceStore(), log)

	sessions := session.NewLocalProvider()
	relay := stream.NewRelay(llmClient, bus, cfg.ChatModel, log)
	reducer := orchestrator.NewReducer(historySink, log)

	driver := visual.NewDriver(50 * time.Millisecond)
	driverCtx, stopDriver := context.WithCancel(ctx)
	defer stopDriver()
	go driver.Run(driverCtx)

	orch := orchestrator.New(
		router,
		classifier,
		invoker,
		bus,
		relay,
		sessions,
		driver,
		reducer,
		log,
		orchestrator.Options{UnlockDelay: cfg.UnlockDelay},
	)

	healthHandler := handler.NewHealthHandler(nc)
	assistantHandler := handler.NewAssistantHandler(orch, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/assistant", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/submit", assistantHandler.Submit)
		r.Post("/stop", assistantHandler.Stop)
		r.Post("/clear", assistantHandler.Clear)
		r.Post("/visual/cycle", assistantHandler.CycleVisual)
		r.Get("/state", assistantHandler.State)
		r.Get("/events", assistantHandler.Events)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
