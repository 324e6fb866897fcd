package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Watermark WatermarkConfig `json:"watermark"`
	Ledger    LedgerConfig    `json:"ledger"`
	Notify    NotifyConfig    `json:"notify"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig is only used by the local HTTP binary
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageConfig represents object storage configuration
type StorageConfig struct {
	Driver          string        `json:"driver"` // s3 or memory
	Region          string        `json:"region"`
	Endpoint        string        `json:"endpoint,omitempty"`
	AccessKeyID     string        `json:"access_key_id,omitempty"`
	SecretAccessKey string        `json:"secret_access_key,omitempty"`
	Bucket          string        `json:"bucket"`
	MasterKey       string        `json:"master_key"`
	MasterFile      string        `json:"master_file,omitempty"` // seeds the memory driver
	OutputPrefix    string        `json:"output_prefix"`
	URLExpiry       Expiry        `json:"url_expiry"`
	PublicBaseURL   string        `json:"public_base_url,omitempty"`
}

// WatermarkConfig selects the watermark rendering mode
type WatermarkConfig struct {
	Mode string `json:"mode"` // header or diagonal
}

// LedgerConfig enables the DynamoDB issuance ledger when Table is set
type LedgerConfig struct {
	Table string `json:"table,omitempty"`
}

// NotifyConfig enables link email and sealed events when set
type NotifyConfig struct {
	FromAddress string `json:"from_address,omitempty"`
	TopicARN    string `json:"topic_arn,omitempty"`
}

// Expiry is a link lifetime. The config file and URL_EXPIRY accept the same
// forms: a number of seconds (3600 or "3600") or a Go duration ("90m").
type Expiry time.Duration

func (e Expiry) Duration() time.Duration {
	return time.Duration(e)
}

func (e *Expiry) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case float64:
		*e = Expiry(time.Duration(v * float64(time.Second)))
	case string:
		d, err := parseExpiry(v)
		if err != nil {
			return fmt.Errorf("invalid url_expiry %q: %w", v, err)
		}
		*e = Expiry(d)
	default:
		return fmt.Errorf("invalid url_expiry %s", data)
	}
	return nil
}

func (e Expiry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Duration().String())
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

const (
	DriverS3     = "s3"
	DriverMemory = "memory"

	ModeHeader   = "header"
	ModeDiagonal = "diagonal"
)

// Default returns the configuration used before file and environment overrides
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver:       DriverS3,
			OutputPrefix: "stamped/",
			URLExpiry:    Expiry(time.Hour),
		},
		Watermark: WatermarkConfig{Mode: ModeHeader},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

func overrideWithEnv(config *Config) error {
	setString(&config.Server.Host, "SERVER_HOST")
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}

	setString(&config.Storage.Driver, "STORAGE_DRIVER")
	setString(&config.Storage.Region, "AWS_REGION")
	setString(&config.Storage.Endpoint, "S3_ENDPOINT")
	setString(&config.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&config.Storage.Bucket, "PDF_BUCKET")
	setString(&config.Storage.MasterKey, "MASTER_KEY")
	setString(&config.Storage.MasterFile, "MASTER_FILE")
	setString(&config.Storage.OutputPrefix, "OUTPUT_PREFIX")
	setString(&config.Storage.PublicBaseURL, "PUBLIC_BASE_URL")
	if expiry := os.Getenv("URL_EXPIRY"); expiry != "" {
		d, err := parseExpiry(expiry)
		if err != nil {
			return fmt.Errorf("invalid URL_EXPIRY %q: %w", expiry, err)
		}
		config.Storage.URLExpiry = Expiry(d)
	}

	setString(&config.Watermark.Mode, "WATERMARK_MODE")
	setString(&config.Ledger.Table, "LEDGER_TABLE")
	setString(&config.Notify.FromAddress, "NOTIFY_FROM")
	setString(&config.Notify.TopicARN, "NOTIFY_TOPIC_ARN")
	setString(&config.Logging.Level, "LOG_LEVEL")
	return nil
}

// Validate reports missing or inconsistent settings
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage bucket is required (PDF_BUCKET)"))
	}
	if c.Storage.MasterKey == "" {
		errs = append(errs, errors.New("master key is required (MASTER_KEY)"))
	}
	if c.Storage.URLExpiry <= 0 {
		errs = append(errs, errors.New("url expiry must be positive"))
	}
	switch c.Storage.Driver {
	case DriverS3, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Watermark.Mode {
	case ModeHeader, ModeDiagonal:
	default:
		errs = append(errs, fmt.Errorf("unknown watermark mode %q", c.Watermark.Mode))
	}
	return errors.Join(errs...)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// parseExpiry accepts a Go duration ("90m") or a number of seconds ("3600").
func parseExpiry(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
