package main

import (
	"fmt"
	"log"
	"os"

	"github.com/orgscope/orgscope/internal/api"
	"github.com/orgscope/orgscope/internal/collector"
	"github.com/orgscope/orgscope/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := log.New(os.Stderr, "orgscope ", log.LstdFlags)

	// Each request carries its own token, so the handler builds a
	// collector per run instead of holding one globally
	factory := func(token string) collector.Collector {
		return collector.NewGitHubCollector(token, logger)
	}

	// Initialize handler
	handler := api.NewHandler(factory, logger)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Printf("Starting API server on %s", addr)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
