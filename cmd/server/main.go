package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/wx-dash/internal/api"
	"github.com/yegors/wx-dash/internal/config"
	"github.com/yegors/wx-dash/internal/dashboard"
	"github.com/yegors/wx-dash/internal/render"
	"github.com/yegors/wx-dash/internal/storage/sqlite"
	"github.com/yegors/wx-dash/internal/templating"
	"github.com/yegors/wx-dash/internal/weather"
	"github.com/yegors/wx-dash/internal/websocket"
	"github.com/yegors/wx-dash/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting weather dashboard",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.String("default_location", cfg.Dashboard.DefaultLocation),
	)

	// Ensure the database directory exists
	dbDir := filepath.Dir(cfg.Storage.SQLitePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", dbDir))
		os.Exit(1)
	}

	prefStorage, err := sqlite.NewPreferenceStorage(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Using SQLite storage", logger.String("path", cfg.Storage.SQLitePath))

	// Create and start WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	weatherClient := weather.NewClient(weather.ClientConfig{
		APIBaseURL:            cfg.Weather.APIBaseURL,
		APIKey:                cfg.Weather.APIKey,
		Units:                 cfg.Weather.Units,
		RequestTimeoutSeconds: cfg.Weather.RequestTimeoutSeconds,
		RateLimitRPS:          cfg.Weather.RateLimitRPS,
		RateLimitBurst:        cfg.Weather.RateLimitBurst,
		CacheTTLSeconds:       cfg.Weather.CacheTTLSeconds,
	}, log)

	layout := render.NewLayout(cfg.Dashboard.CityCards, cfg.Dashboard.ForecastCards, cfg.Dashboard.HighlightCards)

	manager := dashboard.NewManager(dashboard.Config{
		DefaultLocation:    cfg.Dashboard.DefaultLocation,
		SecondaryLocations: cfg.Dashboard.SecondaryLocations,
		Layout:             layout,
	}, dashboard.ManagerConfig{
		IdleTimeout: time.Duration(cfg.Dashboard.SessionIdleTimeoutMinutes) * time.Minute,
	}, weatherClient, prefStorage, wsServer, log)

	if err := manager.Start(); err != nil {
		log.Error("Failed to start session manager", logger.Error(err))
		os.Exit(1)
	}

	// Browser searches and calendar clicks arrive over the websocket
	wsServer.SetMessageHandler(dashboard.NewWebSocketHandler(manager, log))

	templateService := templating.NewService(
		cfg.Templating.DashboardTemplate,
		cfg.Templating.TemplateCacheSize,
		cfg.Templating.ReloadTemplates,
		log,
	)

	// Create API router
	router := api.NewRouter(manager, templateService, wsServer, prefStorage, cfg, log)
	handler := router.Routes()

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := []int{cfg.Server.Port}
	if len(cfg.Server.AdditionalPorts) > 0 {
		allPorts = append(allPorts, cfg.Server.AdditionalPorts...)
	}

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// In-flight fetches are cancelled through the manager context
	log.Info("Stopping session manager...")
	manager.Stop()
	log.Info("Session manager stopped.")

	wsServer.Stop()

	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("All HTTP servers shutdown.")

	if err := prefStorage.Close(); err != nil {
		log.Error("Failed to close SQLite storage", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
