// Gray Assist - Voice Assistant Bridge
//
// Gray Assist links a local home automation core to a cloud voice
// assistant. It mirrors entity state from the core's MQTT bus, answers
// the assistant's SYNC/QUERY/EXECUTE intents over HTTPS, and handles the
// account-linking handshake that authorises the assistant in the first
// place. Everything except the fulfillment endpoint stays on the local
// network.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-assist/migrations"

	"github.com/nerrad567/gray-assist/internal/api"
	"github.com/nerrad567/gray-assist/internal/audit"
	"github.com/nerrad567/gray-assist/internal/auth"
	"github.com/nerrad567/gray-assist/internal/infrastructure/config"
	"github.com/nerrad567/gray-assist/internal/infrastructure/database"
	"github.com/nerrad567/gray-assist/internal/infrastructure/logging"
	"github.com/nerrad567/gray-assist/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-assist/internal/registry"
	"github.com/nerrad567/gray-assist/internal/smarthome"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so errors map
// to exit codes in one place.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Assist",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open the grant store
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Auth gate and activity trail over the grant store
	grantRepo := auth.NewGrantRepository(db.DB)
	auditTrail := audit.NewRecorder(db.DB)
	gate := auth.NewGate(auth.Config{
		ProjectID:   cfg.Assistant.ProjectID,
		ClientID:    cfg.Assistant.ClientID,
		AccessToken: cfg.Assistant.AccessToken,
		TokenSecret: cfg.Assistant.TokenSecret,
		TokenTTL:    time.Duration(cfg.Assistant.TokenTTL) * time.Minute,
	}, grantRepo, log)

	// Connect to the core's MQTT bus
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Entity registry mirror; retained state topics fill it on subscribe
	entityRegistry := registry.New(mqttClient, mqttClient.Topics(), byte(cfg.MQTT.QoS), log)
	if startErr := entityRegistry.Start(); startErr != nil {
		return fmt.Errorf("starting entity registry: %w", startErr)
	}
	log.Info("entity registry subscribed", "prefix", cfg.MQTT.TopicPrefix)

	// Intent bridge
	bridge := smarthome.New(entityRegistry, smarthome.Config{
		AgentUserID:        cfg.Assistant.AgentUserID,
		Exposure:           exposureConfig(cfg),
		ExecuteTimeout:     time.Duration(cfg.Assistant.ExecuteTimeout) * time.Second,
		ExecuteConcurrency: cfg.Assistant.ExecuteConcurrency,
	}, log)

	// HTTP server
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Gate:    gate,
		Bridge:  bridge,
		Audit:   auditTrail,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// exposureConfig translates the assistant config section into the bridge's
// exposure settings.
func exposureConfig(cfg *config.Config) smarthome.ExposureConfig {
	overrides := make(map[string]smarthome.EntityOverride, len(cfg.Assistant.EntityConfig))
	for id, ov := range cfg.Assistant.EntityConfig {
		overrides[id] = smarthome.EntityOverride{
			Expose:  ov.Expose,
			Name:    ov.Name,
			Aliases: ov.Aliases,
		}
	}
	return smarthome.ExposureConfig{
		ExposedDomains: cfg.Assistant.ExposedDomains,
		Overrides:      overrides,
	}
}

// getConfigPath returns the configuration file path.
// Uses GRAYASSIST_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYASSIST_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheckTimeout bounds the startup health verification.
const healthCheckTimeout = 5 * time.Second

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, server *api.Server) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
