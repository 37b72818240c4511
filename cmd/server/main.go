package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/avigneron/pumphouse/adapter/inbound/rest"
	ws "github.com/avigneron/pumphouse/adapter/inbound/websocket"
	"github.com/avigneron/pumphouse/adapter/outbound/clock"
	"github.com/avigneron/pumphouse/adapter/outbound/crypto"
	"github.com/avigneron/pumphouse/adapter/outbound/filewatcher"
	"github.com/avigneron/pumphouse/adapter/outbound/logging"
	"github.com/avigneron/pumphouse/adapter/outbound/machineid"
	"github.com/avigneron/pumphouse/adapter/outbound/relay"
	"github.com/avigneron/pumphouse/adapter/outbound/storage"
	"github.com/avigneron/pumphouse/config"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
	"github.com/avigneron/pumphouse/domain/service"
)

const version = "1.0.0"

func main() {
	var configPath string
	var generateConfig bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&generateConfig, "generate-config", false, "Generate default configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("pumphouse %s\n", version)
		os.Exit(0)
	}

	if generateConfig {
		cfg := config.DefaultConfig()
		if err := config.SaveConfig(cfg, configPath); err != nil {
			fmt.Printf("Error generating config file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration file generated at: %s\n", configPath)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewSlogAdapter(cfg)
	defer logger.Shutdown()

	if id, err := machineid.NewHardwareMachineID().GetMachineID(); err == nil {
		cfg.General.ControllerID = cfg.General.ControllerID + "-" + id
	}

	logger.Info("starting pumphouse",
		"version", version,
		"controller_id", cfg.General.ControllerID,
		"data_dir", cfg.General.DataDir)

	if err := os.MkdirAll(cfg.General.DataDir, 0755); err != nil {
		logger.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// outgoing adapters
	userRepo, err := storage.NewJSONUserRepository(cfg.Storage.UsersFile, logger)
	if err != nil {
		logger.Error("failed to initialize user repository", "error", err)
		os.Exit(1)
	}

	stateRepo, err := storage.NewJSONPumpStateRepository(cfg.Storage.StateFile, logger)
	if err != nil {
		logger.Error("failed to initialize state repository", "error", err)
		os.Exit(1)
	}

	relayDriver, err := buildRelay(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize relay", "error", err)
		os.Exit(1)
	}

	systemClock := clock.NewSystemClock()
	hasher := crypto.NewSHA256Hasher()
	tokens := crypto.NewRandomTokenSource()

	// websocket status hub (incoming adapter, but also the notifier port)
	wsHandler := ws.NewHandler(logger)

	// domain services
	authService := service.NewAuthService(
		userRepo,
		hasher,
		tokens,
		systemClock,
		logger,
		cfg.Session.MaxSessions,
		cfg.Session.TimeoutSeconds,
	)

	pumpService := service.NewPumpService(
		stateRepo,
		relayDriver,
		wsHandler,
		systemClock,
		logger,
		cfg.Pump.DefaultDurationSeconds,
		cfg.Pump.MaxDurationSeconds,
		cfg.Pump.InputInMinutes,
	)

	// restore pump state after power loss before accepting any request
	if err := pumpService.Restore(); err != nil {
		logger.Warn("pump state not restored, starting stopped", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// expiry check loop; the pump must stop on time without network input
	go func() {
		ticker := time.NewTicker(cfg.Pump.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pumpService.Tick()
			case <-ctx.Done():
				return
			}
		}
	}()

	// out-of-band credential edits
	var credentialWatcher inbound.CredentialWatcherService
	if cfg.Storage.WatchUsersFile {
		watcher, err := filewatcher.NewFSWatcher()
		if err != nil {
			logger.Warn("file watcher unavailable", "error", err)
		} else {
			credentialWatcher = service.NewCredentialWatcherService(watcher, authService, logger, cfg.Storage.UsersFile)
			if err := credentialWatcher.Start(); err != nil {
				logger.Warn("credential watcher not started", "error", err)
				credentialWatcher = nil
			}
		}
	}

	// HTTP router and incoming adapters
	router := mux.NewRouter()

	restHandler := rest.NewHandler(authService, pumpService, logger)
	restHandler.SetupRoutes(router)

	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsHandler.HandleConnection(w, r, pumpService.Status())
	})

	httpAddr := fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         httpAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", httpAddr, "tls", cfg.HTTP.TLS)
		var err error
		if cfg.HTTP.TLS {
			err = server.ListenAndServeTLS(cfg.HTTP.CertFile, cfg.HTTP.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("pumphouse started")

	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if credentialWatcher != nil {
		if err := credentialWatcher.Stop(); err != nil {
			logger.Error("credential watcher shutdown error", "error", err)
		}
	}

	wsHandler.Cleanup()

	logger.Info("shutdown complete")
}

// buildRelay selects the relay backend from configuration. The memory
// driver keeps development hosts without GPIO hardware usable.
func buildRelay(cfg *config.Config, logger outbound.Logger) (outbound.RelayDriver, error) {
	switch strings.ToLower(cfg.Pump.Relay.Driver) {
	case "gpio":
		return relay.NewSysfsRelay(cfg.Pump.Relay.Pin, cfg.Pump.Relay.ActiveHigh, logger)
	default:
		logger.Info("using in-memory relay driver")
		return relay.NewMemoryRelay(), nil
	}
}
