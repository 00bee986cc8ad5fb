package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Database and Redis configuration
//   - queue.go: Claim sizing, field priority and run lock configuration
//   - translation.go: Languages, budgets, chunking and provider configuration
//   - services.go: Service mode and loop configuration
//   - events.go: Translated event listeners
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, debug level).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"processor"`

	// Queue configuration
	Queue QueueConfig

	// Translation configuration
	Translation TranslationConfig
	Provider    ProviderConfig

	// Loop configuration
	Processor   ProcessorConfig
	Maintenance MaintenanceConfig

	// Translated event delivery
	Events EventsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Postgres.Sanitize()
	c.Redis.Sanitize()
	c.Queue.Sanitize()
	c.Translation.Sanitize()
	c.Provider.Sanitize()
	c.Processor.Sanitize()
	c.Maintenance.Sanitize()
	c.Events.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and APP_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsProcessorEnabled returns true if the queue processor loop is enabled.
func (c *AppConfig) IsProcessorEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeProcessor]
}

// IsMaintenanceEnabled returns true if the maintenance loop is enabled.
func (c *AppConfig) IsMaintenanceEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeMaintenance]
}
