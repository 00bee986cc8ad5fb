package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/diff"
	"github.com/target/translation-queue/internal/domain/model"
)

// ValueTranslatorOptions bundles dependencies and limits for NewValueTranslator.
type ValueTranslatorOptions struct {
	Diff     core.DiffEngine
	Provider core.Translator
	Retry    *RetryExecutor
	Logger   *slog.Logger

	ChunkLimit         int
	PayloadCeiling     int
	ExcludedShortcodes []string
	Shortcodes         []string
	ProtectedPatterns  []*regexp.Regexp
	Policy             Policy
}

// ValueTranslator translates heterogeneous values leaf by leaf, sending only the
// parts of each string that differ from the existing translation.
type ValueTranslator struct {
	diff     core.DiffEngine
	provider core.Translator
	retry    *RetryExecutor
	logger   *slog.Logger

	chunkLimit     int
	payloadCeiling int
	diffOpts       diff.Options
	protected      []*regexp.Regexp
	policy         Policy
}

// NewValueTranslator validates the options and returns a ValueTranslator.
func NewValueTranslator(opts ValueTranslatorOptions) (*ValueTranslator, error) {
	if opts.Diff == nil {
		return nil, errors.New("diff engine is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("translation provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retry := opts.Retry
	if retry == nil {
		retry = NewRetryExecutor(RetryOptions{MaxJitter: DefaultMaxJitter}, logger)
	}
	ceiling := opts.PayloadCeiling
	if ceiling <= 0 {
		ceiling = DefaultPayloadCeiling
	}
	return &ValueTranslator{
		diff:           opts.Diff,
		provider:       opts.Provider,
		retry:          retry,
		logger:         logger.With("component", "value_translator"),
		chunkLimit:     NormalizeChunkLimit(opts.ChunkLimit),
		payloadCeiling: ceiling,
		diffOpts: diff.Options{
			ExcludedShortcodes: slices.Clone(opts.ExcludedShortcodes),
			Shortcodes:         slices.Clone(opts.Shortcodes),
		},
		protected: slices.Clone(opts.ProtectedPatterns),
		policy:    opts.Policy,
	}, nil
}

// Request is one value to translate.
type Request struct {
	// Field is the job field the value was read from.
	Field      model.FieldSpec
	SourceLang string
	TargetLang string
	Value      any
	// Target is the current translation, same shape as Value, or nil.
	Target any
}

// Result is the translated value and what it cost.
type Result struct {
	Value      any
	Characters int
	Segments   int
	Calls      int
}

type walkState struct {
	req         Request
	forcedField bool
	res         Result

	// planning records each leaf diff in plans without calling the provider.
	planning bool
	plans    []diff.Result
	next     int
}

// Translate walks req.Value and returns a new value of the same shape. The input
// is never modified. The first leaf error aborts the whole value.
//
// The value is walked twice: once to diff every leaf and check the payload
// ceiling against the sum of all segments, then again to translate.
func (t *ValueTranslator) Translate(ctx context.Context, req Request) (Result, error) {
	st := &walkState{
		req:         req,
		forcedField: t.policy.ForcedFull(req.Field.Name),
		planning:    true,
	}
	if _, err := t.walk(ctx, st, req.Value, req.Target, req.Field.Name); err != nil {
		return Result{}, err
	}
	var segments []string
	for _, plan := range st.plans {
		segments = append(segments, plan.Segments...)
	}
	if err := CheckPayload(segments, t.payloadCeiling); err != nil {
		return Result{}, err
	}

	st.planning = false
	out, err := t.walk(ctx, st, req.Value, req.Target, req.Field.Name)
	if err != nil {
		return Result{}, err
	}
	st.res.Value = out
	return st.res, nil
}

func (t *ValueTranslator) walk(ctx context.Context, st *walkState, value, target any, key string) (any, error) {
	switch v := value.(type) {
	case string:
		tgt, _ := target.(string)
		return t.translateString(ctx, st, v, tgt, key)
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			r, err := t.walk(ctx, st, el, elementAt(target, i), key)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	case []string:
		out := make([]string, len(v))
		for i, el := range v {
			tgt, _ := elementAt(target, i).(string)
			r, err := t.translateString(ctx, st, el, tgt, key)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		return t.walkMap(ctx, st, v, target)
	case map[string]string:
		out := make(map[string]string, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			tgt, _ := valueAt(target, k).(string)
			r, err := t.translateString(ctx, st, v[k], tgt, k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case *model.Object:
		if v == nil {
			return v, nil
		}
		var tgtProps any
		switch tv := target.(type) {
		case *model.Object:
			if tv != nil {
				tgtProps = tv.Properties
			}
		case map[string]any:
			tgtProps = tv
		}
		props, err := t.walkMap(ctx, st, v.Properties, tgtProps)
		if err != nil {
			return nil, err
		}
		return &model.Object{Class: v.Class, Properties: props}, nil
	default:
		return value, nil
	}
}

func (t *ValueTranslator) walkMap(ctx context.Context, st *walkState, m map[string]any, target any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		r, err := t.walk(ctx, st, m[k], valueAt(target, k), k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = r
	}
	return out, nil
}

func (t *ValueTranslator) translateString(ctx context.Context, st *walkState, source, target, key string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return source, nil
	}

	if st.planning {
		against := target
		if st.forcedField || t.policy.ForcedFull(key) || t.policy.StaleTarget(source, target) {
			against = ""
		}
		st.plans = append(st.plans, t.diff.CalculateDiff(source, against, t.diffOpts))
		return source, nil
	}

	if st.next >= len(st.plans) {
		return "", errors.New("value changed between diff and translation")
	}
	res := st.plans[st.next]
	st.next++
	if res.Empty() {
		if target != "" {
			return target, nil
		}
		return t.diff.Rebuild(res, nil)
	}

	domain := DomainFor(key)
	if domain == DomainGeneral && key != st.req.Field.Name {
		domain = DomainFor(st.req.Field.Name)
	}

	translations := make([]string, 0, len(res.Segments))
	for _, chunk := range Chunk(res.Segments, t.chunkLimit) {
		pieces, err := t.translateChunk(ctx, st, chunk, domain)
		if err != nil {
			return "", err
		}
		translations = append(translations, pieces...)
		st.res.Characters += CharCount(chunk)
		st.res.Calls++
	}
	st.res.Segments += len(res.Segments)

	return t.diff.Rebuild(res, translations)
}

func (t *ValueTranslator) translateChunk(ctx context.Context, st *walkState, chunk []string, domain Domain) ([]string, error) {
	masked, placeholders := t.diff.PrepareForProvider(JoinChunk(chunk), t.protected)

	call := func(ctx context.Context, text string, d Domain) (string, error) {
		return t.provider.Translate(ctx, core.TranslateRequest{
			Text:       text,
			SourceLang: st.req.SourceLang,
			TargetLang: st.req.TargetLang,
			Domain:     string(d),
		})
	}
	out, err := t.retry.Attempt(ctx, call, masked, domain)
	if err != nil {
		return nil, err
	}

	pieces := SplitChunk(t.diff.RestorePlaceholders(out, placeholders), len(chunk))
	if got := strings.Count(out, separatorMarker) + 1; got < len(chunk) {
		t.logger.WarnContext(ctx, "provider returned fewer segments than sent",
			"sent", len(chunk), "received", got, "field", st.req.Field.Raw)
	}
	return pieces, nil
}

func elementAt(target any, i int) any {
	switch tv := target.(type) {
	case []any:
		if i < len(tv) {
			return tv[i]
		}
	case []string:
		if i < len(tv) {
			return tv[i]
		}
	}
	return nil
}

func valueAt(target any, key string) any {
	switch tv := target.(type) {
	case map[string]any:
		return tv[key]
	case map[string]string:
		if s, ok := tv[key]; ok {
			return s
		}
	case *model.Object:
		if tv != nil {
			return tv.Properties[key]
		}
	}
	return nil
}
