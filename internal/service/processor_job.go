package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	"github.com/target/translation-queue/internal/domain/translate"
	apperrors "github.com/target/translation-queue/internal/errors"
	"github.com/target/translation-queue/internal/observability/metrics"
)

const previewExcerptRunes = 200

// jobRun carries the state of one job through its languages.
type jobRun struct {
	job     *model.Job
	spec    model.FieldSpec
	source  *model.Entity
	value   any
	targets []*model.Entity
	logger  *slog.Logger
}

// processJob runs one claimed job through every target language and records
// its final state. The first failing language fails the job; languages already
// written stay written and are translated again when the job is retried. A job
// cut short by cancellation goes back to pending without counting a retry.
func (p *Processor) processJob(ctx context.Context, job *model.Job, budget *translate.Budget) model.JobState {
	start := p.now()
	run := &jobRun{
		job: job,
		logger: p.logger.With(
			"job_id", job.ID,
			"object_type", job.ObjectType,
			"object_id", job.ObjectID,
			"field", job.Field,
		),
	}

	err := p.translateJob(ctx, run, budget)
	if err != nil && ctx.Err() != nil {
		run.logger.InfoContext(ctx, "translation job interrupted", "error", err)
		if _, revErr := p.jobs.RevertToPending(context.WithoutCancel(ctx), []string{job.ID}); revErr != nil {
			run.logger.ErrorContext(ctx, "failed to revert interrupted job", "error", revErr)
		}
		return model.JobStatePending
	}

	state := model.JobStateDone
	switch {
	case err != nil:
		state = model.JobStateError
	case p.settings.DryRun:
		state = model.JobStateSkipped
	}
	p.finishJob(ctx, run, state, err)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitJobLifecycle(p.metrics, metrics.JobMetric{
		ObjectType: job.ObjectType,
		Transition: state,
		Result:     result,
		Duration:   p.now().Sub(start),
		Err:        err,
	})
	return state
}

func (p *Processor) translateJob(ctx context.Context, run *jobRun, budget *translate.Budget) error {
	spec, err := model.ParseFieldSpec(run.job.Field)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid job field")
	}
	run.spec = spec

	source, err := p.content.ResolveEntity(ctx, run.job.ObjectType, run.job.ObjectID)
	if err != nil {
		return resolutionError(err, "resolve source %s %s", run.job.ObjectType, run.job.ObjectID)
	}
	if source == nil {
		return apperrors.Resolutionf("source %s %s not found", run.job.ObjectType, run.job.ObjectID)
	}
	run.source = source

	value, err := p.content.ReadField(ctx, source, spec)
	if err != nil {
		return fmt.Errorf("read source field %s: %w", spec, err)
	}
	run.value = value

	for _, lang := range p.settings.TargetLangs {
		if err := p.translateLanguage(ctx, run, lang, budget); err != nil {
			return fmt.Errorf("%s: %w", lang, err)
		}
	}
	return nil
}

func (p *Processor) translateLanguage(ctx context.Context, run *jobRun, lang string, budget *translate.Budget) error {
	target, err := p.resolveTarget(ctx, run.source, lang)
	if err != nil {
		return err
	}
	run.targets = append(run.targets, target)

	if run.value == nil {
		run.logger.DebugContext(ctx, "source field is empty, nothing to translate", "target_lang", lang)
		return nil
	}

	current, err := p.content.ReadField(ctx, target, run.spec)
	if err != nil {
		return fmt.Errorf("read target field %s: %w", run.spec, err)
	}

	out, err := p.translator.Translate(ctx, translate.Request{
		Field:      run.spec,
		SourceLang: p.settings.SourceLang,
		TargetLang: lang,
		Value:      run.value,
		Target:     current,
	})
	budget.Add(out.Characters)
	if err != nil {
		if ctx.Err() == nil {
			p.setFieldStatus(ctx, run, target, model.FieldStatusFailed)
		}
		return err
	}

	if p.settings.DryRun {
		return p.savePreview(ctx, run, lang, out)
	}

	if err := p.content.WriteField(ctx, core.WriteFieldParams{
		Entity: target,
		Field:  run.spec,
		Value:  out.Value,
	}); err != nil {
		p.setFieldStatus(ctx, run, target, model.FieldStatusFailed)
		return fmt.Errorf("write target field %s: %w", run.spec, err)
	}
	p.setFieldStatus(ctx, run, target, model.FieldStatusSynced)

	run.logger.DebugContext(ctx, "field translated",
		"target_lang", lang,
		"target_id", target.ID,
		"characters", out.Characters,
		"calls", out.Calls,
	)
	p.publish(ctx, run, target, lang, out.Value)
	return nil
}

// resolveTarget finds the translation of source in lang and rejects pairings
// that point back at the source itself.
func (p *Processor) resolveTarget(ctx context.Context, source *model.Entity, lang string) (*model.Entity, error) {
	target, err := p.content.ResolvePairedEntity(ctx, source, lang)
	if err != nil {
		return nil, resolutionError(err, "resolve %s translation of %s %s", lang, source.Type, source.ID)
	}
	if target == nil {
		return nil, apperrors.Resolutionf("no %s translation of %s %s", lang, source.Type, source.ID)
	}
	if target.ID == source.ID || target.TranslationOf == target.ID {
		return nil, apperrors.Resolutionf("translation loop: %s %s is registered as its own %s translation",
			source.Type, target.ID, lang)
	}
	return target, nil
}

// resolutionError marks not-found failures of the host as resolution errors and
// passes anything else through wrapped.
func resolutionError(err error, format string, args ...any) error {
	if apperrors.IsNotFound(err) || apperrors.IsResolution(err) {
		return apperrors.Wrapf(err, apperrors.ErrCodeResolution, format, args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func (p *Processor) savePreview(ctx context.Context, run *jobRun, lang string, out translate.Result) error {
	source := excerpt(run.value)
	preview := &model.Preview{
		JobID:             run.job.ID,
		ObjectType:        run.job.ObjectType,
		ObjectID:          run.job.ObjectID,
		Field:             run.job.Field,
		TargetLang:        lang,
		SourceExcerpt:     source,
		TranslatedExcerpt: excerpt(out.Value),
		Characters:        out.Characters,
		Words:             len(strings.Fields(source)),
		EstimatedCost:     float64(out.Characters) * p.settings.CostPerMillion / 1_000_000,
	}
	if err := p.previews.Save(ctx, preview); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

func (p *Processor) setFieldStatus(ctx context.Context, run *jobRun, target *model.Entity, status model.FieldStatus) {
	err := p.status.SetFieldStatus(ctx, core.SetFieldStatusParams{
		TargetType: target.Type,
		TargetID:   target.ID,
		Field:      run.job.Field,
		Status:     status,
	})
	if err != nil {
		run.logger.WarnContext(ctx, "failed to record field status",
			"target_id", target.ID, "status", status, "error", err)
	}
}

func (p *Processor) publish(ctx context.Context, run *jobRun, target *model.Entity, lang string, value any) {
	if p.events == nil {
		return
	}
	evt := model.TranslatedEvent{
		JobID:      run.job.ID,
		Source:     *run.source,
		Target:     *target,
		Field:      run.job.Field,
		TargetLang: lang,
		Value:      value,
		OccurredAt: p.now().UTC(),
	}
	if err := p.events.Publish(ctx, evt); err != nil {
		run.logger.WarnContext(ctx, "translated event listener failed", "target_id", target.ID, "error", err)
	}
}

// finishJob stores the final job state and refreshes the aggregate status of
// every target entity touched by the job.
func (p *Processor) finishJob(ctx context.Context, run *jobRun, state model.JobState, jobErr error) {
	params := core.UpdateJobStateParams{
		ID:            run.job.ID,
		State:         state,
		ExpectedState: model.JobStateTranslating,
	}
	if jobErr != nil {
		params.Error = jobErr.Error()
		run.logger.WarnContext(ctx, "translation job failed", "error", jobErr, "retries", run.job.Retries)
	}

	// The state must land even when the run context was cancelled mid-job.
	storeCtx := context.WithoutCancel(ctx)
	updated, err := p.jobs.UpdateState(storeCtx, params)
	switch {
	case err != nil:
		run.logger.ErrorContext(ctx, "failed to update job state", "state", state, "error", err)
		return
	case !updated:
		// Outdated or re-enqueued while translating; the next run picks it up again.
		run.logger.InfoContext(ctx, "job superseded while translating", "state", state)
		return
	}

	if p.settings.DryRun {
		return
	}
	for _, target := range run.targets {
		p.refreshEntityStatus(storeCtx, run, target)
	}
}

// refreshEntityStatus recomputes the aggregate status of a target: pending
// while its source has outstanding jobs, partial while any field failed and
// completed otherwise.
func (p *Processor) refreshEntityStatus(ctx context.Context, run *jobRun, target *model.Entity) {
	outstanding, err := p.jobs.CountOutstanding(ctx, run.job.ObjectType, run.job.ObjectID)
	if err != nil {
		run.logger.WarnContext(ctx, "failed to count outstanding jobs", "error", err)
		return
	}

	rec := model.EntityStatusRecord{TargetType: target.Type, TargetID: target.ID}
	if outstanding > 0 {
		rec.Status = model.EntityStatusPending
	} else {
		fields, err := p.status.ListFieldStatuses(ctx, target.Type, target.ID)
		if err != nil {
			run.logger.WarnContext(ctx, "failed to list field statuses", "target_id", target.ID, "error", err)
			return
		}
		rec.Status = aggregateStatus(fields)
		if rec.Status == model.EntityStatusCompleted {
			now := p.now().UTC()
			rec.LastSyncAt = &now
		}
	}

	if err := p.status.SetEntityStatus(ctx, rec); err != nil {
		run.logger.WarnContext(ctx, "failed to store entity status", "target_id", target.ID, "error", err)
	}
}

func aggregateStatus(fields map[string]model.FieldStatus) model.EntityStatus {
	for _, st := range fields {
		if st != model.FieldStatusSynced {
			return model.EntityStatusPartial
		}
	}
	return model.EntityStatusCompleted
}

// excerpt renders a field value for previews, truncated to a fixed number of runes.
func excerpt(v any) string {
	var s string
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		s = tv
	default:
		raw, err := json.Marshal(tv)
		if err != nil {
			s = fmt.Sprint(tv)
		} else {
			s = string(raw)
		}
	}
	if utf8.RuneCountInString(s) <= previewExcerptRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewExcerptRunes]) + "…"
}
