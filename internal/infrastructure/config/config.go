// Package config loads Gray Assist configuration from YAML with environment
// variable overrides and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Assist.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Logging   LoggingConfig   `yaml:"logging"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// DatabaseConfig contains SQLite settings for the grant store.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the entity
// registry gateway.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// EntityOverrideConfig carries per-entity assistant overrides keyed by
// entity ID in the assistant.entity_config section.
type EntityOverrideConfig struct {
	Expose  *bool    `yaml:"expose"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// AssistantConfig contains the voice-assistant integration settings.
type AssistantConfig struct {
	// ProjectID is the assistant project this bridge is linked to. When
	// set, authorization redirect URIs must end in "/r/<project_id>".
	ProjectID string `yaml:"project_id"`

	// ClientID is the OAuth client identifier the remote service presents.
	ClientID string `yaml:"client_id"`

	// AccessToken, when set, is a static token accepted on every request.
	// Leave empty to rely solely on issued grants.
	AccessToken string `yaml:"access_token"`

	// AgentUserID identifies this home in SYNC responses.
	AgentUserID string `yaml:"agent_user_id"`

	// TokenSecret signs issued access tokens. Required.
	TokenSecret string `yaml:"token_secret"`

	// TokenTTL is the issued token lifetime in minutes.
	TokenTTL int `yaml:"token_ttl"`

	// ExposedDomains are entity domains exposed without explicit opt-in.
	ExposedDomains []string `yaml:"exposed_domains"`

	// EntityConfig holds per-entity overrides keyed by entity ID.
	EntityConfig map[string]EntityOverrideConfig `yaml:"entity_config"`

	// ExecuteTimeout bounds each per-device EXECUTE operation (seconds).
	ExecuteTimeout int `yaml:"execute_timeout"`

	// ExecuteConcurrency caps concurrent device dispatches per batch.
	ExecuteConcurrency int `yaml:"execute_concurrency"`
}

// Load reads configuration from a YAML file, applies environment variable
// overrides (GRAYASSIST_SECTION_KEY), and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8443,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/grayassist.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "grayassist",
			},
			QoS:         1,
			TopicPrefix: "homecore",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Assistant: AssistantConfig{
			AgentUserID: "grayassist-home",
			TokenTTL:    60,
			ExposedDomains: []string{
				"light", "switch", "fan", "scene", "group", "climate",
			},
			ExecuteTimeout:     5,
			ExecuteConcurrency: 4,
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYASSIST_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("GRAYASSIST_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("GRAYASSIST_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GRAYASSIST_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYASSIST_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYASSIST_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("GRAYASSIST_TOKEN_SECRET"); v != "" {
		cfg.Assistant.TokenSecret = v
	}
	if v := os.Getenv("GRAYASSIST_ACCESS_TOKEN"); v != "" {
		cfg.Assistant.AccessToken = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}
	if c.Assistant.ClientID == "" {
		errs = append(errs, "assistant.client_id is required")
	}

	// A weak signing secret would let anyone mint tokens that control
	// physical devices.
	const minSecretLength = 32
	if c.Assistant.TokenSecret == "" {
		errs = append(errs, "assistant.token_secret is required (set GRAYASSIST_TOKEN_SECRET environment variable)")
	} else if len(c.Assistant.TokenSecret) < minSecretLength {
		errs = append(errs, "assistant.token_secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
