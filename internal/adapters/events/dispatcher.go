// Package events delivers translated-field events to registered listeners.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
)

// Dispatcher fans every event out to its listeners in registration order.
// A failing listener does not stop delivery to the others.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners []core.EventListener
	logger    *slog.Logger
}

var _ core.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher returns a Dispatcher with the given listeners registered.
func NewDispatcher(logger *slog.Logger, listeners ...core.EventListener) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger.With("component", "event_dispatcher")}
	for _, l := range listeners {
		d.Register(l)
	}
	return d
}

// Register adds a listener. Nil listeners are ignored.
func (d *Dispatcher) Register(l core.EventListener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	d.listeners = append(d.listeners, l)
	d.mu.Unlock()
}

// Len returns the number of registered listeners.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners)
}

// Publish delivers evt to every listener and joins their errors.
func (d *Dispatcher) Publish(ctx context.Context, evt model.TranslatedEvent) error {
	d.mu.RLock()
	listeners := make([]core.EventListener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	var errs []error
	for i, l := range listeners {
		if err := d.deliver(ctx, l, evt); err != nil {
			d.logger.WarnContext(ctx, "event listener failed",
				"listener", i,
				"job_id", evt.JobID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("listener %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, l core.EventListener, evt model.TranslatedEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panicked: %v", p)
		}
	}()
	return l.HandleTranslated(ctx, evt)
}

// LogListener records every event as a structured log line.
type LogListener struct {
	logger *slog.Logger
}

// NewLogListener returns a LogListener writing to logger.
func NewLogListener(logger *slog.Logger) *LogListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogListener{logger: logger.With("component", "translated_events")}
}

// HandleTranslated implements core.EventListener.
func (l *LogListener) HandleTranslated(ctx context.Context, evt model.TranslatedEvent) error {
	l.logger.InfoContext(ctx, "field translated",
		"job_id", evt.JobID,
		"source_type", evt.Source.Type,
		"source_id", evt.Source.ID,
		"target_id", evt.Target.ID,
		"target_lang", evt.TargetLang,
		"field", evt.Field,
	)
	return nil
}
