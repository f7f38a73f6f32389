package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.mau.fi/util/dbutil"
	"gopkg.in/yaml.v3"

	"github.com/momentlabs/radar/pkg/httpapi"
	"github.com/momentlabs/radar/pkg/llm"
	"github.com/momentlabs/radar/pkg/quota"
	"github.com/momentlabs/radar/pkg/radar"
)

func main() {
	cfgPath := flag.String("config", "", "path to radar YAML config (optional, env fills the gaps)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := &radar.Config{}
	if *cfgPath != "" {
		data, err := os.ReadFile(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("Failed to read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("Failed to parse config")
		}
	}
	cfg = radar.ApplyEnvDefaults(cfg)

	// The LLM key is the one piece of configuration the engine cannot run
	// without; fail before any stream protocol starts.
	client, err := llm.NewClient(cfg.LLM, log)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			log.Fatal().Msg("OPENAI_API_KEY is not set")
		}
		log.Fatal().Err(err).Msg("Failed to build LLM client")
	}

	cities := radar.NewCities(log)
	if cfg.CityFile != "" {
		if err := cities.LoadFile(cfg.CityFile); err != nil {
			log.Fatal().Err(err).Str("path", cfg.CityFile).Msg("Failed to load city table")
		}
		stopWatch, err := cities.Watch()
		if err != nil {
			log.Warn().Err(err).Msg("City table watcher unavailable, hot-reload disabled")
		} else {
			defer stopWatch()
		}
	}

	raw, err := sql.Open("sqlite3", cfg.Quota.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Quota.Path).Msg("Failed to open quota database")
	}
	db, err := dbutil.NewWithDB(raw, "sqlite3")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wrap quota database")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := quota.NewStore(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize quota store")
	}

	engine := radar.NewOrchestrator(
		cfg,
		cities,
		llm.NewExtractor(client),
		llm.NewResolver(client),
		quota.NewLimiter(store, cfg.Quota.DailyLimit, log),
		log,
	)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpapi.NewRouter(engine, cfg.Server, log),
		// Streaming responses stay open well past typical write timeouts.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Radar engine listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
