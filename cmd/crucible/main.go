package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lawnchairsociety/crucible/internal/config"
	"github.com/lawnchairsociety/crucible/internal/currency"
	"github.com/lawnchairsociety/crucible/internal/database"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/logger"
	"github.com/lawnchairsociety/crucible/internal/mods"
	"github.com/lawnchairsociety/crucible/internal/reload"
	"github.com/lawnchairsociety/crucible/internal/server"
)

func main() {
	configFile := flag.String("config", "data/crucible.yaml", "Path to server config YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	telnetAddr := flag.String("telnet", "", "Telnet listen address (overrides config)")
	wsAddr := flag.String("ws", "", "WebSocket listen address (overrides config)")
	seed := flag.Int64("seed", 0, "Random seed (overrides config; 0 keeps the configured seed)")
	noJournal := flag.Bool("no-journal", false, "Disable the transaction journal")
	watch := flag.Bool("watch", false, "Reload the modifier pool and item bases when they change")
	flag.Parse()

	// Initialize logger first (before any logging)
	logConfig, err := logger.LoadConfig(*loggingConfig)
	if err != nil {
		log.Printf("Failed to load logging config, using defaults: %v", err)
		logConfig = logger.DefaultConfig()
	}
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Info("Starting Crucible server")

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}
	if *telnetAddr != "" {
		cfg.Listen.Telnet = *telnetAddr
	}
	if *wsAddr != "" {
		cfg.Listen.WebSocket = *wsAddr
	}
	if *seed != 0 {
		cfg.RNG.Seed = *seed
	}
	if *noJournal {
		cfg.Journal.Enabled = false
	}
	if *watch {
		cfg.Data.Watch = true
	}

	if cfg.RNG.Seed == 0 {
		logger.Info("Random seed selected", "random", true)
	} else {
		logger.Info("Random seed selected", "seed", cfg.RNG.Seed, "random", false)
	}

	pool, bases, err := loadData(cfg.Data)
	if err != nil {
		log.Fatalf("Failed to load game data: %v", err)
	}

	currencies := currency.DefaultRegistry()
	logger.Info("Currencies registered", "count", currencies.Count())

	srv := server.NewServer(cfg, pool, bases, currencies)

	if cfg.Journal.Enabled {
		db, err := database.OpenWithConfig(cfg.Journal.Database)
		if err != nil {
			log.Fatalf("Failed to open journal database: %v", err)
		}
		defer db.Close()
		srv.SetRecorder(db)
		srv.SetJournal(db)

		count, err := db.CountTransactions()
		if err != nil {
			logger.Warning("Failed to count journal entries", "error", err)
		}
		logger.Info("Transaction journal opened", "driver", cfg.Journal.Database.Driver, "entries", count)
	} else {
		logger.Info("Transaction journal disabled")
	}

	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.WebSocket.AllowedOrigins) == 1 && cfg.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.WebSocket.AllowedOrigins)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Listen.Telnet != "" {
		g.Go(srv.Start)
	}
	if cfg.Listen.WebSocket != "" {
		g.Go(srv.StartWebSocket)
	}
	if cfg.Data.Watch {
		w, err := reload.New([]string{cfg.Data.ModsFile, cfg.Data.BasesFile}, reload.DefaultDebounce, func() error {
			pool, bases, err := loadData(cfg.Data)
			if err != nil {
				return err
			}
			srv.SetData(pool, bases)
			return nil
		})
		if err != nil {
			log.Fatalf("Failed to watch game data: %v", err)
		}
		g.Go(func() error { return w.Run(ctx) })
		logger.Info("Watching game data for changes")
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server")
		srv.Shutdown()
		return nil
	})

	logger.Info("Crucible running", "telnet", cfg.Listen.Telnet, "websocket", cfg.Listen.WebSocket)
	logger.Info("Press Ctrl+C to shutdown")

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		logger.Close()
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}

func loadData(cfg config.DataConfig) (*mods.Pool, *items.BaseCatalog, error) {
	pool, err := mods.LoadPoolFromYAML(cfg.ModsFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Modifier pool loaded", "path", cfg.ModsFile, "count", pool.Len())

	bases, err := items.LoadBasesFromYAML(cfg.BasesFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Item bases loaded", "path", cfg.BasesFile, "count", bases.Count())
	return pool, bases, nil
}
