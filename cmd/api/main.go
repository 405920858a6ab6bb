package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwebster45206/chronicle/internal/config"
	"github.com/jwebster45206/chronicle/internal/handlers"
	"github.com/jwebster45206/chronicle/internal/logger"
	"github.com/jwebster45206/chronicle/internal/middleware"
	"github.com/jwebster45206/chronicle/internal/services"
	"github.com/jwebster45206/chronicle/internal/services/events"
	"github.com/jwebster45206/chronicle/internal/session"
	"github.com/jwebster45206/chronicle/internal/story"
	"github.com/jwebster45206/chronicle/pkg/textfilter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Chronicle API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"narrative_model", cfg.NarrativeModel,
		"image_model", cfg.ImageModel,
		"lore_model", cfg.LoreModel)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	keys := services.NewKeyRing(cfg.GeminiAPIKey)
	if !keys.HasSelectedKey() {
		log.Warn("No GEMINI_API_KEY set, players will be asked to select a key")
	}

	gemini := services.NewGeminiService(keys, log)
	genAI, err := services.NewInstrumentedGenAI(gemini, registry)
	if err != nil {
		log.Error("Failed to register generation metrics", "error", err)
		os.Exit(1)
	}

	var bus events.Bus
	if cfg.RedisURL != "" {
		client, err := events.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisBus := events.NewRedisBus(client, log)
		defer func() {
			if err := redisBus.Close(); err != nil {
				log.Error("Error closing Redis connection", "error", err)
			}
		}()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = redisBus.Ping(pingCtx)
		pingCancel()
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Using Redis event bus")
		bus = redisBus
	} else {
		log.Info("Using in-process event bus")
		bus = events.NewLocalBus(log)
	}

	genOpts := []story.GeneratorOption{story.WithHistoryLimit(cfg.HistoryLimit)}
	if textfilter.ShouldFilterContent(cfg.ContentRating) {
		log.Info("Content filter enabled", "rating", cfg.ContentRating)
		genOpts = append(genOpts, story.WithContentFilter(textfilter.New()))
	}

	sessions := session.NewManager(cfg.SessionTTL, log)
	ctrl := session.NewController(
		sessions,
		keys,
		story.NewGenerator(genAI, cfg.NarrativeModel, log, genOpts...),
		story.NewIllustrator(genAI, cfg.ImageModel, log),
		story.NewLoreAssistant(genAI, cfg.LoreModel, log),
		events.NewBroadcaster(bus, log),
		log,
	)

	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "chronicle",
		Name:      "active_sessions",
		Help:      "Adventure sessions held in memory.",
	}, func() float64 { return float64(sessions.Len()) }))

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go sessions.Run(janitorCtx, time.Minute)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(bus, keys, log))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/v1/themes", handlers.NewThemesHandler(log))
	mux.Handle("/v1/credentials", handlers.NewCredentialsHandler(keys, log))

	adventureHandler := handlers.NewAdventureHandler(ctrl, log)
	mux.Handle("/v1/adventures", adventureHandler)
	mux.Handle("/v1/adventures/", adventureHandler)

	mux.Handle("/v1/events/adventures/", handlers.NewEventsHandler(bus, sessions, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: generation calls are not bounded and SSE streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	stopJanitor()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
