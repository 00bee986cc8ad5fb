package translate

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/diff"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []core.TranslateRequest
	fn    func(req core.TranslateRequest) (string, error)
}

func (f *fakeProvider) Translate(_ context.Context, req core.TranslateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeProvider) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Text
	}
	return out
}

// dictionary translates each joined segment through dict, upper-casing unknown ones.
func dictionary(dict map[string]string) func(core.TranslateRequest) (string, error) {
	return func(req core.TranslateRequest) (string, error) {
		pieces := strings.Split(req.Text, SegmentSeparator)
		for i, p := range pieces {
			if v, ok := dict[p]; ok {
				pieces[i] = v
				continue
			}
			pieces[i] = strings.ToUpper(p)
		}
		return strings.Join(pieces, SegmentSeparator), nil
	}
}

var italian = map[string]string{
	"Ciao mondo": "Hello world",
	"Ciao":       "Hello",
	"uno":        "one",
	"due":        "two",
}

func newTestTranslator(t *testing.T, p *fakeProvider, mutate func(*ValueTranslatorOptions)) *ValueTranslator {
	t.Helper()
	opts := ValueTranslatorOptions{
		Diff:     diff.New(),
		Provider: p,
		Retry:    fastRetry(1),
		Policy:   DefaultPolicy(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	vt, err := NewValueTranslator(opts)
	require.NoError(t, err)
	return vt
}

func field(t *testing.T, raw string) model.FieldSpec {
	t.Helper()
	spec, err := model.ParseFieldSpec(raw)
	require.NoError(t, err)
	return spec
}

func TestNewValueTranslator_RequiresDeps(t *testing.T) {
	_, err := NewValueTranslator(ValueTranslatorOptions{Provider: &fakeProvider{}})
	require.Error(t, err)
	_, err = NewValueTranslator(ValueTranslatorOptions{Diff: diff.New()})
	require.Error(t, err)
}

func TestTranslate_StringWithEmptyTarget(t *testing.T) {
	p := &fakeProvider{fn: dictionary(italian)}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{
		Field:      field(t, "post_content"),
		SourceLang: "it",
		TargetLang: "en",
		Value:      "Ciao mondo",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello world", res.Value)
	assert.Equal(t, 10, res.Characters)
	assert.Equal(t, 1, res.Calls)
	require.Len(t, p.calls, 1)
	assert.Equal(t, "it", p.calls[0].SourceLang)
	assert.Equal(t, "en", p.calls[0].TargetLang)
	assert.Equal(t, string(DomainGeneral), p.calls[0].Domain)
}

func TestTranslate_NoOpReturnsTargetUnchanged(t *testing.T) {
	p := &fakeProvider{fn: func(core.TranslateRequest) (string, error) {
		return "", errors.New("provider must not be called")
	}}
	vt := newTestTranslator(t, p, nil)

	target := "<p>Prezzo: 10 €</p>\n<p>Codice ABC</p>"
	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "post_content"),
		Value:  target,
		Target: target,
	})

	require.NoError(t, err)
	assert.Equal(t, target, res.Value)
	assert.Zero(t, res.Characters)
	assert.Empty(t, p.calls)
}

func TestTranslate_BlankStringsPassThrough(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{Field: field(t, "post_excerpt"), Value: "  \n "})
	require.NoError(t, err)
	assert.Equal(t, "  \n ", res.Value)
	assert.Empty(t, p.calls)
}

func TestTranslate_OnlyChangedPartsAreSent(t *testing.T) {
	p := &fakeProvider{fn: dictionary(map[string]string{"Terzo paragrafo": "Third paragraph"})}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "post_content"),
		Value:  "<p>First</p>\n<p>Second</p>\n<p>Terzo paragrafo</p>",
		Target: "<p>First</p>\n<p>Second</p>\n<p>Old third</p>",
	})

	require.NoError(t, err)
	assert.Equal(t, "<p>First</p>\n<p>Second</p>\n<p>Third paragraph</p>", res.Value)
	assert.Equal(t, []string{"Terzo paragrafo"}, p.texts())
}

func TestTranslate_NestedMapScenario(t *testing.T) {
	p := &fakeProvider{fn: dictionary(italian)}
	vt := newTestTranslator(t, p, nil)

	source := map[string]any{"title": "Ciao", "tags": []any{"uno", "due"}}
	target := map[string]any{"title": "Hello", "tags": []any{"one"}}

	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "meta:_block_data"),
		Value:  source,
		Target: target,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello", "tags": []any{"one", "two"}}, res.Value)
	assert.Equal(t, []string{"uno", "due", "Ciao"}, p.texts())

	assert.Equal(t, map[string]any{"title": "Ciao", "tags": []any{"uno", "due"}}, source, "source must not be mutated")
	assert.Equal(t, map[string]any{"title": "Hello", "tags": []any{"one"}}, target, "target must not be mutated")
}

func TestTranslate_ForcedFullKeyBypassesDiff(t *testing.T) {
	p := &fakeProvider{fn: dictionary(italian)}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "meta:_data"),
		Value:  map[string]any{"title": "Ciao", "body": "Ciao"},
		Target: map[string]any{"title": "Ciao", "body": "Ciao"},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello", "body": "Ciao"}, res.Value)
	assert.Equal(t, []string{"Ciao"}, p.texts())
}

func TestTranslate_ForcedFullJobField(t *testing.T) {
	p := &fakeProvider{fn: dictionary(italian)}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "post_title"),
		Value:  "Ciao",
		Target: "Ciao",
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Value)
	require.Len(t, p.calls, 1)
	assert.Equal(t, string(DomainMarketing), p.calls[0].Domain)
}

func TestTranslate_StaleTargetRetranslatesWhole(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, nil)

	body := strings.Repeat("parola ", 100)
	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "post_content"),
		Value:  "Intro\n" + body,
		Target: "Intro",
	})

	require.NoError(t, err)
	assert.Equal(t, "INTRO\n"+strings.ToUpper(strings.TrimSpace(body))+" ", res.Value)
	require.Len(t, p.calls, 1)
	assert.True(t, strings.HasPrefix(p.calls[0].Text, "Intro"+SegmentSeparator))
}

func TestTranslate_ChunksUnderLimit(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, func(o *ValueTranslatorOptions) { o.ChunkLimit = 500 })

	lines := []string{strings.Repeat("a", 300), strings.Repeat("b", 300), strings.Repeat("c", 300)}
	res, err := vt.Translate(context.Background(), Request{
		Field: field(t, "post_content"),
		Value: strings.Join(lines, "\n"),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Calls)
	assert.Equal(t, 900, res.Characters)
	assert.Equal(t, strings.ToUpper(strings.Join(lines, "\n")), res.Value)
}

func TestTranslate_PayloadCeilingFailsBeforeCalls(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, func(o *ValueTranslatorOptions) { o.PayloadCeiling = 10 })

	_, err := vt.Translate(context.Background(), Request{
		Field: field(t, "post_content"),
		Value: "più di dieci byte",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.True(t, apperrors.IsResourceLimit(err))
	assert.Empty(t, p.calls)
}

func TestTranslate_PayloadCeilingCoversWholeValue(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, func(o *ValueTranslatorOptions) { o.PayloadCeiling = 10 })

	// Each leaf fits on its own; together they do not.
	_, err := vt.Translate(context.Background(), Request{
		Field: field(t, "meta:pair"),
		Value: map[string]any{"a": "abcdefg", "b": "hijklmn"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Contains(t, err.Error(), "14 bytes across 2 segments")
	assert.Empty(t, p.calls)
}

func TestTranslate_ProtectedPatternsHiddenFromProvider(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, func(o *ValueTranslatorOptions) {
		o.ProtectedPatterns = []*regexp.Regexp{regexp.MustCompile(`https?://\S+`)}
	})

	res, err := vt.Translate(context.Background(), Request{
		Field: field(t, "post_content"),
		Value: "Vai su https://example.com/it ora",
	})

	require.NoError(t, err)
	assert.Equal(t, "VAI SU https://example.com/it ORA", res.Value)
	require.Len(t, p.calls, 1)
	assert.NotContains(t, p.calls[0].Text, "example.com")
}

func TestTranslate_MissingPiecesPadded(t *testing.T) {
	p := &fakeProvider{fn: func(core.TranslateRequest) (string, error) { return "one", nil }}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{
		Field: field(t, "post_content"),
		Value: "uno\ndue",
	})

	require.NoError(t, err)
	assert.Equal(t, "one\n", res.Value)
}

func TestTranslate_ErrorAbortsComposite(t *testing.T) {
	boom := errors.New("quota exceeded")
	p := &fakeProvider{fn: func(req core.TranslateRequest) (string, error) {
		if req.Text == "due" {
			return "", boom
		}
		return strings.ToUpper(req.Text), nil
	}}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{
		Field: field(t, "meta:list"),
		Value: map[string]any{"items": []any{"uno", "due", "tre"}},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperrors.IsProvider(err))
	assert.Contains(t, err.Error(), "items: [1]")
	assert.Nil(t, res.Value)
	assert.Equal(t, []string{"uno", "due"}, p.texts(), "translation stops at the first failure")
}

func TestTranslate_ObjectAndTypedCollections(t *testing.T) {
	p := &fakeProvider{fn: dictionary(italian)}
	vt := newTestTranslator(t, p, nil)

	src := &model.Object{Class: "Block", Properties: map[string]any{
		"label": "Ciao",
		"count": 3,
		"names": []string{"uno", "due"},
		"attrs": map[string]string{"alt": "Ciao mondo"},
	}}
	res, err := vt.Translate(context.Background(), Request{
		Field:  field(t, "meta:_block"),
		Value:  src,
		Target: &model.Object{Properties: map[string]any{"names": []string{"uno"}}},
	})

	require.NoError(t, err)
	out, ok := res.Value.(*model.Object)
	require.True(t, ok)
	assert.NotSame(t, src, out)
	assert.Equal(t, "Block", out.Class)
	assert.Equal(t, "Hello", out.Properties["label"])
	assert.Equal(t, 3, out.Properties["count"])
	assert.Equal(t, []string{"uno", "two"}, out.Properties["names"])
	assert.Equal(t, map[string]string{"alt": "Hello world"}, out.Properties["attrs"])

	assert.Equal(t, "Ciao", src.Properties["label"], "source object must not be mutated")
}

func TestTranslate_UnknownTypesPassThrough(t *testing.T) {
	p := &fakeProvider{fn: dictionary(nil)}
	vt := newTestTranslator(t, p, nil)

	res, err := vt.Translate(context.Background(), Request{Field: field(t, "meta:n"), Value: 42.5})
	require.NoError(t, err)
	assert.InDelta(t, 42.5, res.Value, 0)

	res, err = vt.Translate(context.Background(), Request{Field: field(t, "meta:n"), Value: nil})
	require.NoError(t, err)
	assert.Nil(t, res.Value)
}
