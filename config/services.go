package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/target/translation-queue/internal/domain/model"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeProcessor runs the ticker-driven queue processor.
	ServiceModeProcessor ServiceMode = "processor"
	// ServiceModeMaintenance runs the retry, resync and cleanup sweeps.
	ServiceModeMaintenance ServiceMode = "maintenance"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeProcessor,
		ServiceModeMaintenance,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeProcessor, ServiceModeMaintenance:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: processor, maintenance)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ProcessorConfig contains queue processor loop configuration.
type ProcessorConfig struct {
	// Interval is the time between two RunQueue executions.
	Interval time.Duration `env:"PROCESSOR_INTERVAL" envDefault:"1m"`

	// RunTimeout stops a run from starting new jobs; the job in progress
	// finishes. Zero means the lock TTL.
	RunTimeout time.Duration `env:"PROCESSOR_RUN_TIMEOUT" envDefault:"0s"`
}

// Sanitize applies guardrails to processor configuration values.
func (p *ProcessorConfig) Sanitize() {
	if p.Interval < 5*time.Second {
		p.Interval = 5 * time.Second
	}
	if p.RunTimeout < 0 {
		p.RunTimeout = 0
	}
}

// MaintenanceConfig contains maintenance loop configuration.
type MaintenanceConfig struct {
	// Interval is the maintenance tick interval.
	Interval time.Duration `env:"MAINTENANCE_INTERVAL" envDefault:"5m"`

	// RetentionDays is how long terminal jobs are kept before deletion.
	RetentionDays int `env:"MAINTENANCE_RETENTION_DAYS" envDefault:"30"`

	// CleanupStates lists the job states eligible for deletion.
	CleanupStates []model.JobState `env:"MAINTENANCE_CLEANUP_STATES" envDefault:"done,skipped"`

	// BatchSize is the maximum number of rows to process per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"MAINTENANCE_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to maintenance configuration values.
func (m *MaintenanceConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if m.Interval < time.Minute {
		m.Interval = time.Minute
	}
	if m.RetentionDays < 1 {
		m.RetentionDays = 1
	}
	if len(m.CleanupStates) == 0 {
		m.CleanupStates = []model.JobState{model.JobStateDone, model.JobStateSkipped}
	}

	// Enforce batch size bounds to prevent excessive locks or inefficiency
	if m.BatchSize < 1 {
		m.BatchSize = 1
	}
	if m.BatchSize > 10000 {
		m.BatchSize = 10000
	}
}
