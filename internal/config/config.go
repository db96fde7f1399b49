package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Receipt     ReceiptConfig     `yaml:"receipt"`
	Notify      NotifyConfig      `yaml:"notify"`
	Log         LogConfig         `yaml:"log"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// ServerConfig contains the observability listener settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// MarketplaceConfig contains marketplace bootstrap settings
type MarketplaceConfig struct {
	AdminPrincipal string        `yaml:"admin_principal"`
	SeedAccounts   []SeedAccount `yaml:"seed_accounts"`
}

// SeedAccount credits a principal's escrow account at startup
type SeedAccount struct {
	Principal    string `yaml:"principal"`
	BalanceCents int64  `yaml:"balance_cents"`
}

// ReceiptConfig contains credential receipt signing settings
type ReceiptConfig struct {
	SigningKey string `yaml:"signing_key"`
}

// NotifyConfig contains dispute notification settings. An empty API key
// selects the log-only notifier.
type NotifyConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	AdminEmail     string `yaml:"admin_email"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileEscrow           string `yaml:"reconcile_escrow"`
	SendDisputeReminders      string `yaml:"send_dispute_reminders"`
	DisputeReminderAfterHours int    `yaml:"dispute_reminder_after_hours"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Marketplace
	if val := os.Getenv("ADMIN_PRINCIPAL"); val != "" {
		c.Marketplace.AdminPrincipal = val
	}

	// Receipt
	if val := os.Getenv("RECEIPT_SIGNING_KEY"); val != "" {
		c.Receipt.SigningKey = val
	}

	// Notify
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notify.SendGridAPIKey = val
	}
	if val := os.Getenv("NOTIFY_FROM_EMAIL"); val != "" {
		c.Notify.FromEmail = val
	}
	if val := os.Getenv("NOTIFY_ADMIN_EMAIL"); val != "" {
		c.Notify.AdminEmail = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Marketplace validation
	if c.Marketplace.AdminPrincipal == "" {
		return fmt.Errorf("admin principal is required")
	}
	for _, acct := range c.Marketplace.SeedAccounts {
		if acct.Principal == "" {
			return fmt.Errorf("seed account principal is required")
		}
		if acct.BalanceCents < 0 {
			return fmt.Errorf("seed account balance must not be negative: %s", acct.Principal)
		}
	}

	// Receipt validation
	if c.Receipt.SigningKey == "" {
		return fmt.Errorf("receipt signing key is required")
	}
	if len(c.Receipt.SigningKey) < 32 {
		return fmt.Errorf("receipt signing key must be at least 32 characters")
	}

	// Notify validation: SendGrid delivery needs sender and recipient
	if c.Notify.SendGridAPIKey != "" {
		if c.Notify.FromEmail == "" {
			return fmt.Errorf("notify from_email is required when sendgrid is configured")
		}
		if c.Notify.AdminEmail == "" {
			return fmt.Errorf("notify admin_email is required when sendgrid is configured")
		}
	}

	// Scheduler defaults
	if c.Scheduler.ReconcileEscrow == "" {
		c.Scheduler.ReconcileEscrow = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.SendDisputeReminders == "" {
		c.Scheduler.SendDisputeReminders = "0 0 9 * * *" // 9 AM UTC
	}
	if c.Scheduler.DisputeReminderAfterHours <= 0 {
		c.Scheduler.DisputeReminderAfterHours = 24
	}

	return nil
}

// GetServerAddress returns the observability listener address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
