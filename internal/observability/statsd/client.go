// Package statsd emits the translation queue's metrics over the StatsD line
// protocol with DogStatsD-style tags.
package statsd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metric names. The client prepends the configured prefix.
const (
	MetricQueueRun            = "queue.run"
	MetricQueueRunDuration    = "queue.run_duration"
	MetricQueueJobsClaimed    = "queue.jobs_claimed"
	MetricQueueJobsProcessed  = "queue.jobs_processed"
	MetricQueueJobsSkipped    = "queue.jobs_skipped"
	MetricQueueJobsFailed     = "queue.jobs_failed"
	MetricQueueJobsReverted   = "queue.jobs_reverted"
	MetricQueueCharacters     = "queue.characters"
	MetricQueueBudgetExceeded = "queue.budget_exhausted"
	MetricQueueDepth          = "queue.depth"

	MetricJobTransition = "translation_job.transition"
	MetricJobDuration   = "translation_job.duration"

	MetricSweep            = "maintenance.sweep"
	MetricSweepDuration    = "maintenance.sweep_duration"
	MetricSweepLastSuccess = "maintenance.last_success_epoch"
	MetricSweepOperation   = "maintenance.operation"
	MetricSweepAffected    = "maintenance.jobs_affected"
)

// Tag keys shared by every emitter.
const (
	TagService    = "service"
	TagResult     = "result"
	TagErrorClass = "error_class"
	TagObjectType = "object_type"
	TagTransition = "transition"
	TagState      = "state"
	TagOperation  = "operation"
)

// DefaultService is the service tag value when Config.GlobalTags sets none.
const DefaultService = "translation-queue"

// Sink describes the minimal interface required to emit StatsD-style metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes how to reach the StatsD agent.
type Config struct {
	Address string
	Prefix  string
	Logger  *slog.Logger
	// GlobalTags are added to every metric; local tags win on conflict.
	GlobalTags map[string]string
}

// Client emits metrics over UDP. It is safe for concurrent use and a nil
// *Client drops everything.
type Client struct {
	prefix string
	global map[string]string
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var _ Sink = (*Client)(nil)

// NewClient dials the agent. UDP dialing only resolves the address, so an
// agent that is down shows up as dropped writes, not as an error here.
func NewClient(cfg Config) (*Client, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, errors.New("statsd address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}

	global := cleanTags(cfg.GlobalTags)
	if _, ok := global[TagService]; !ok {
		global[TagService] = DefaultService
	}
	return &Client{
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		global: global,
		logger: logger.With("component", "statsd"),
		conn:   conn,
	}, nil
}

// Count increments a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.write(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge sets a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.write(name, formatFloat(value), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	c.write(name, formatFloat(float64(value)/float64(time.Millisecond)), "ms", tags)
}

// Close releases the connection. Later writes are dropped.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) write(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	line := c.line(name, value, kind, tags)
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "metric", name, "error", err)
	}
}

// line renders "<prefix>.<name>:<value>|<kind>|#k:v,...".
func (c *Client) line(name, value, kind string, tags map[string]string) string {
	metric := metricName(c.prefix, name)
	if metric == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(metric)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(kind)

	merged := cleanTags(c.global)
	maps.Copy(merged, cleanTags(tags))
	for i, k := range slices.Sorted(maps.Keys(merged)) {
		if i == 0 {
			b.WriteString("|#")
		} else {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(merged[k])
	}
	return b.String()
}

// reserved replaces characters that delimit the line protocol.
var reserved = strings.NewReplacer(" ", "_", "/", "_", ":", "_", "|", "_", "@", "_", "#", "_", ",", "_")

func metricName(prefix, name string) string {
	n := strings.Trim(reserved.Replace(strings.TrimSpace(name)), ".")
	if n == "" {
		return ""
	}
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	if prefix == "" {
		return n
	}
	return prefix + "." + n
}

// cleanTags returns a sanitized copy of tags without empty keys.
func cleanTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		key := reserved.Replace(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		out[key] = reserved.Replace(strings.TrimSpace(v))
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
