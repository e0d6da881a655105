package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/your-org/fileserver/pkg/api"
	"github.com/your-org/fileserver/pkg/config"
	"github.com/your-org/fileserver/pkg/index"
	"github.com/your-org/fileserver/pkg/ingest"
	"github.com/your-org/fileserver/pkg/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Register routes
	api.RegisterRoutes(srv.Echo, srv)

	// Start HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting file server on %s (data dir: %s)", addr, cfg.Storage.DataDir)

	if err := srv.Echo.Start(addr); err != nil {
		log.Fatalf("Failed to start HTTP server: %v", err)
	}
}

func initializeServer(cfg *config.Config) (*api.Server, error) {
	// The index must be open before anything touches it
	idx, err := index.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata index: %w", err)
	}

	st, err := store.New(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ingestSvc := ingest.NewService(st, idx, logger)

	return api.NewServer(ingestSvc, idx), nil
}
