// Package config loads process settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Clerk     ClerkConfig     `json:"clerk"`
	Mocks     MockConfig      `json:"mocks"`
	Admin     AdminConfig     `json:"admin"`
	History   HistoryConfig   `json:"history"`
	Mail      MailConfig      `json:"mail"`
	Barcode   BarcodeConfig   `json:"barcode"`
	LogSink   LogSinkConfig   `json:"log_sink"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

type ServerConfig struct {
	Addr            string        `json:"addr"`
	PublicOrigin    string        `json:"public_origin"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// StorageConfig picks the cache backend. An Azure account name wins over
// the file directory; Memory wins over both.
type StorageConfig struct {
	Memory      bool   `json:"memory"`
	Dir         string `json:"dir"`
	AccountName string `json:"account_name"`
	AccountKey  string `json:"-"`
	Container   string `json:"container"`
}

func (s StorageConfig) IsAzure() bool {
	return !s.Memory && s.AccountName != ""
}

type ClerkConfig struct {
	SecretKey  string `json:"-"`
	SignInURL  string `json:"sign_in_url"`
	SignOutURL string `json:"sign_out_url"`
}

func (c ClerkConfig) IsEnabled() bool {
	return c.SecretKey != ""
}

type MockConfig struct {
	Enable bool   `json:"enable"`
	Email  string `json:"email"`
}

type AdminConfig struct {
	Emails []string `json:"emails"`
}

type HistoryConfig struct {
	RetentionDays int `json:"retention_days"`
}

type MailConfig struct {
	SendGridKey string `json:"-"`
	FromName    string `json:"from_name"`
	FromAddress string `json:"from_address"`
}

func (m MailConfig) IsEnabled() bool {
	return m.SendGridKey != ""
}

type BarcodeConfig struct {
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout"`
	Retries  int           `json:"retries"`
}

type LogSinkConfig struct {
	Container string `json:"container"`
}

func (l LogSinkConfig) IsEnabled() bool {
	return l.Container != ""
}

type TelemetryConfig struct {
	Endpoint    string `json:"endpoint"`
	ServiceName string `json:"service_name"`
}

func (t TelemetryConfig) IsEnabled() bool {
	return t.Endpoint != ""
}

// Load reads .env when present and then the process environment. Values
// already in the environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var errs []error
	config := &Config{
		Server: ServerConfig{
			Addr:            getEnvOrDefault("ADDR", ":8080"),
			PublicOrigin:    strings.TrimRight(os.Getenv("PUBLIC_ORIGIN"), "/"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		},
		Storage: StorageConfig{
			Memory:      getBool("STORAGE_MEMORY", false, &errs),
			Dir:         getEnvOrDefault("STORAGE_DIR", "data"),
			AccountName: os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AccountKey:  os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			Container:   getEnvOrDefault("AZURE_STORAGE_CONTAINER", "barkeep"),
		},
		Clerk: ClerkConfig{
			SecretKey:  os.Getenv("CLERK_SECRET_KEY"),
			SignInURL:  os.Getenv("CLERK_SIGN_IN_URL"),
			SignOutURL: os.Getenv("CLERK_SIGN_OUT_URL"),
		},
		Mocks: MockConfig{
			Enable: getBool("MOCKS_ENABLE", false, &errs),
			Email:  getEnvOrDefault("MOCKS_EMAIL", "bartender@example.com"),
		},
		Admin: AdminConfig{
			Emails: splitList(os.Getenv("ADMIN_EMAILS")),
		},
		History: HistoryConfig{
			RetentionDays: getInt("HISTORY_RETENTION_DAYS", 90, &errs),
		},
		Mail: MailConfig{
			SendGridKey: os.Getenv("SENDGRID_API_KEY"),
			FromName:    getEnvOrDefault("MAIL_FROM_NAME", "Barkeep"),
			FromAddress: getEnvOrDefault("MAIL_FROM_ADDRESS", "noreply@barkeep.local"),
		},
		Barcode: BarcodeConfig{
			Endpoint: getEnvOrDefault("BARCODE_ENDPOINT", "https://api.upcitemdb.com/prod/trial/lookup"),
			Timeout:  getDuration("BARCODE_TIMEOUT", 5*time.Second, &errs),
			Retries:  getInt("BARCODE_RETRIES", 2, &errs),
		},
		LogSink: LogSinkConfig{
			Container: os.Getenv("LOGSINK_CONTAINER"),
		},
		Telemetry: TelemetryConfig{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "barkeep"),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	slog.Info("loaded config", "storage_azure", config.Storage.IsAzure(), "clerk", config.Clerk.IsEnabled(), "mocks", config.Mocks.Enable)
	return config, nil
}

// Validate rejects settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if !c.Clerk.IsEnabled() && !c.Mocks.Enable {
		errs = append(errs, errors.New("CLERK_SECRET_KEY is required unless MOCKS_ENABLE is set"))
	}
	if c.Storage.IsAzure() && c.Storage.Container == "" {
		errs = append(errs, errors.New("AZURE_STORAGE_CONTAINER must not be empty"))
	}
	if c.LogSink.IsEnabled() && c.Storage.AccountName == "" {
		errs = append(errs, errors.New("LOGSINK_CONTAINER requires AZURE_STORAGE_ACCOUNT_NAME"))
	}
	if c.History.RetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("HISTORY_RETENTION_DAYS must be positive, got %d", c.History.RetentionDays))
	}
	if c.Barcode.Retries < 0 {
		errs = append(errs, fmt.Errorf("BARCODE_RETRIES must not be negative, got %d", c.Barcode.Retries))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
