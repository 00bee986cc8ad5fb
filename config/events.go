package config

import (
	"strings"
	"time"
)

// EventsConfig controls the listeners notified after a translation is persisted.
type EventsConfig struct {
	// LogEvents writes one structured log line per translated field.
	LogEvents bool `env:"EVENTS_LOG" envDefault:"true"`

	// WebhookURL receives a JSON POST per translated field when set.
	WebhookURL string `env:"EVENTS_WEBHOOK_URL" envDefault:""`
	// WebhookFilter is a JMESPath expression evaluated against the event;
	// the webhook fires only when it yields a truthy value.
	WebhookFilter string `env:"EVENTS_WEBHOOK_FILTER" envDefault:""`
	// WebhookBody is a JMESPath projection of the event used as request body.
	WebhookBody    string        `env:"EVENTS_WEBHOOK_BODY"    envDefault:""`
	WebhookTimeout time.Duration `env:"EVENTS_WEBHOOK_TIMEOUT" envDefault:"10s"`
}

// Sanitize trims expressions and enforces a minimum webhook timeout.
func (c *EventsConfig) Sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.WebhookFilter = strings.TrimSpace(c.WebhookFilter)
	c.WebhookBody = strings.TrimSpace(c.WebhookBody)
	if c.WebhookTimeout < time.Second {
		c.WebhookTimeout = time.Second
	}
}

// WebhookEnabled reports whether a webhook listener should be registered.
func (c *EventsConfig) WebhookEnabled() bool {
	return c.WebhookURL != ""
}
