// main.go
//
// Entry point for the Simon Says service.
// Commands:
//   - serve (default): HTTP API, websocket feed, metrics and MCP over HTTP.
//   - mcp: the same tools over stdin/stdout for local agents.
//
// Configuration comes from .env and the environment (internal/config);
// --port and --log-level override it.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/robalobadob/simonsays/internal/config"
	"github.com/robalobadob/simonsays/internal/game"
	"github.com/robalobadob/simonsays/internal/httpserver"
	"github.com/robalobadob/simonsays/internal/mcptools"
	"github.com/robalobadob/simonsays/internal/metrics"
	"github.com/robalobadob/simonsays/internal/realtime"
	"github.com/robalobadob/simonsays/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("simonsays exited")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "simonsays",
		Usage:  "Simon Says game service",
		Flags:  commonFlags(),
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Flags:  commonFlags(),
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "serve the game tools over stdio (Model Context Protocol)",
				Flags:  commonFlags(),
				Action: runMCP,
			},
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port (overrides PORT)"},
		&cli.StringFlag{Name: "log-level", Usage: "trace|debug|info|warn|error (overrides LOG_LEVEL)"},
	}
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.String("port")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := setupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogger configures the global zerolog logger.
func setupLogger(level, format string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}

// app holds the wired components shared by both commands.
type app struct {
	game    *game.Game
	history store.Store
	hub     *realtime.Hub
	metrics *metrics.Metrics
	tools   *mcptools.Tools
}

// wire opens the history store and builds a game whose transitions fan out
// to the websocket hub, the metrics and the history. The hub runs until ctx
// is cancelled.
func wire(ctx context.Context, cfg config.Config) (*app, error) {
	history, err := store.Open(ctx, cfg.HistoryDSN)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	src, err := game.NewSource(cfg.Seed)
	if err != nil {
		_ = history.Close()
		return nil, fmt.Errorf("random source: %w", err)
	}

	a := &app{history: history, hub: realtime.NewHub(), metrics: metrics.New()}
	go a.hub.Run(ctx)

	a.game, err = game.New(
		game.WithSource(src),
		game.WithListener(a.hub.Publish),
		game.WithListener(a.metrics.Observe),
		game.WithListener(store.Recorder(history)),
	)
	if err != nil {
		_ = history.Close()
		return nil, err
	}
	a.tools = mcptools.New(a.game)
	return a, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	a, err := wire(hubCtx, cfg)
	if err != nil {
		return err
	}
	defer a.history.Close()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpserver.New(a.game, httpserver.Options{
			History:        a.history,
			Hub:            a.hub,
			Metrics:        a.metrics,
			MCP:            a.tools,
			HistoryLimit:   cfg.HistoryLimit,
			RequestTimeout: cfg.RequestTimeout,
		}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msgf("Simon Says app running on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	stopHub()
	<-a.hub.Done()
	log.Info().Msg("server stopped")
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	a, err := wire(hubCtx, cfg)
	if err != nil {
		return err
	}
	defer a.history.Close()

	log.Info().Msg("serving MCP over stdio")
	return a.tools.ServeStdio()
}
