// Package metrics emits the standard translation queue metrics to a StatsD sink.
package metrics

import (
	"time"

	"github.com/target/translation-queue/internal/domain/model"
	obserrors "github.com/target/translation-queue/internal/observability/errors"
	"github.com/target/translation-queue/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
	ResultLocked  = "locked"
)

// JobMetric captures one job state transition.
type JobMetric struct {
	ObjectType model.ObjectType
	Transition model.JobState
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitJobLifecycle emits translation_job.transition and, when timed, translation_job.duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		statsd.TagObjectType: string(in.ObjectType),
		statsd.TagTransition: string(in.Transition),
		statsd.TagResult:     in.Result,
	}
	addErrorClass(tags, in.Result, in.Err)

	sink.Count(statsd.MetricJobTransition, 1, tags)

	if in.Duration > 0 {
		sink.Timing(statsd.MetricJobDuration, in.Duration, CloneTags(tags))
	}
}

// EmitRun emits the outcome of one processor run.
func EmitRun(sink statsd.Sink, res model.RunResult, err error) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	switch {
	case err != nil:
		result = ResultError
	case res.Claimed == 0:
		result = ResultNoop
	}
	tags := map[string]string{statsd.TagResult: result}
	addErrorClass(tags, result, err)

	sink.Count(statsd.MetricQueueRun, 1, tags)
	if res.Duration > 0 {
		sink.Timing(statsd.MetricQueueRunDuration, res.Duration, CloneTags(tags))
	}
	if err != nil {
		return
	}

	sink.Count(statsd.MetricQueueJobsClaimed, int64(res.Claimed), nil)
	sink.Count(statsd.MetricQueueJobsProcessed, int64(res.Processed), nil)
	sink.Count(statsd.MetricQueueJobsSkipped, int64(res.Skipped), nil)
	sink.Count(statsd.MetricQueueJobsFailed, int64(res.Errors), nil)
	sink.Count(statsd.MetricQueueJobsReverted, int64(res.Reverted), nil)
	sink.Count(statsd.MetricQueueCharacters, int64(res.Characters), nil)
	if res.BudgetHit {
		sink.Count(statsd.MetricQueueBudgetExceeded, 1, nil)
	}
}

// EmitStateCounts reports the current queue depth per state as gauges.
func EmitStateCounts(sink statsd.Sink, counts model.StateCounts) {
	if sink == nil {
		return
	}
	for state, n := range counts {
		sink.Gauge(statsd.MetricQueueDepth, float64(n), map[string]string{statsd.TagState: string(state)})
	}
}

func addErrorClass(tags map[string]string, result string, err error) {
	if err == nil || result != ResultError {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags[statsd.TagErrorClass] = class
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
