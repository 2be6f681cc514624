// Package config provides configuration handling for the flow engine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Auth configuration
	Auth AuthConfig `json:"auth"`

	// Engine configuration
	Engine EngineConfig `json:"engine"`

	// Schedule configuration
	Schedule ScheduleConfig `json:"schedule"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string `json:"host"`

	// Port to listen on
	Port int `json:"port"`

	// TLS configuration
	TLS TLSConfig `json:"tls"`
}

// TLSConfig contains TLS settings.
type TLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertFile string `json:"cert_file"`
	KeyFile  string `json:"key_file"`
}

// StorageConfig contains storage settings.
type StorageConfig struct {
	// Type of storage to use: "memory", "postgres" or "dynamodb"
	Type string `json:"type"`

	// Postgres configuration
	Postgres PostgresConfig `json:"postgres"`

	// DynamoDB configuration
	DynamoDB DynamoDBConfig `json:"dynamodb"`
}

// PostgresConfig contains PostgreSQL settings.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// DynamoDBConfig contains DynamoDB settings.
type DynamoDBConfig struct {
	// Region is the AWS region
	Region string `json:"region"`

	// Endpoint overrides the DynamoDB endpoint (for local development)
	Endpoint string `json:"endpoint"`

	// TablePrefix is the prefix for all tables
	TablePrefix string `json:"table_prefix"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	// JWTSecret signs management API tokens
	JWTSecret string `json:"jwt_secret"`

	// TokenExpiration is the token expiration time in hours
	TokenExpiration int `json:"token_expiration"`

	// EncryptionKey is the 32-byte hex key for encrypting vault secrets
	EncryptionKey string `json:"encryption_key"`

	// AdminUsername for the management API login
	AdminUsername string `json:"admin_username"`

	// AdminPasswordHash is the bcrypt hash of the admin password
	AdminPasswordHash string `json:"admin_password_hash"`
}

// EngineConfig contains flow execution settings.
type EngineConfig struct {
	// NodeTimeoutSeconds bounds a single node execution
	NodeTimeoutSeconds int `json:"node_timeout_seconds"`

	// RequestTimeoutSeconds bounds a whole flow execution
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	// ProxyBaseURL is the base URL for proxy node dispatch
	ProxyBaseURL string `json:"proxy_base_url"`
}

// ScheduleConfig contains scheduled trigger settings.
type ScheduleConfig struct {
	// Enabled turns the cron scheduler on
	Enabled bool `json:"enabled"`

	// RedisAddr is the address of the redis instance holding schedules
	RedisAddr string `json:"redis_addr"`

	// RedisPassword for the redis instance
	RedisPassword string `json:"redis_password"`

	// RedisDB selects the redis database
	RedisDB int `json:"redis_db"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // "debug", "info", "warn", "error"
	Format string `json:"format"` // "json", "text"
	Output string `json:"output"` // "stdout", "file"

	// FilePath is the path to the log file when Output is "file"
	FilePath string `json:"file_path"`
}

// LoadConfig loads the configuration from a file and applies environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnvOverrides()
	return config, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "rantir",
				User:     "rantir",
				SSLMode:  "disable",
			},
			DynamoDB: DynamoDBConfig{
				Region:      "us-west-2",
				TablePrefix: "rantir_",
			},
		},
		Auth: AuthConfig{
			TokenExpiration: 24,
		},
		Engine: EngineConfig{
			NodeTimeoutSeconds:    30,
			RequestTimeoutSeconds: 300,
		},
		Schedule: ScheduleConfig{
			RedisAddr: "localhost:6379",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyEnvOverrides lets deployment environments override file settings.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("RANTIR_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("RANTIR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("RANTIR_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("RANTIR_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("RANTIR_ENCRYPTION_KEY"); v != "" {
		c.Auth.EncryptionKey = v
	}
	if v := os.Getenv("RANTIR_PROXY_BASE_URL"); v != "" {
		c.Engine.ProxyBaseURL = v
	}
	if v := os.Getenv("RANTIR_REDIS_ADDR"); v != "" {
		c.Schedule.RedisAddr = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Storage.Postgres.Password = v
	}
}

// SaveConfig saves the configuration to a file.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
