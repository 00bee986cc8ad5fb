package diff

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(res Result) []string {
	out := make([]string, len(res.Segments))
	copy(out, res.Segments)
	return out
}

func TestCalculateDiff_EmptyTargetTranslatesAllText(t *testing.T) {
	e := New()
	res := e.CalculateDiff("<p>Ciao mondo</p>\n<p>Seconda riga</p>", "", Options{})

	assert.Equal(t, []string{"Ciao mondo", "Seconda riga"}, res.Segments)
	assert.False(t, res.Empty())
}

func TestCalculateDiff_IdenticalIsNoOp(t *testing.T) {
	e := New()
	src := "<h2>Title</h2>\n  Some text  \n[gallery ids=\"1,2\"]"
	res := e.CalculateDiff(src, src, Options{})

	assert.True(t, res.Empty())
}

func TestCalculateDiff_OnlyChangedLines(t *testing.T) {
	e := New()
	src := "<p>Uno</p>\n<p>Due</p>\n<p>Tre</p>"
	dst := "<p>Uno</p>\n<p>Due</p>\n<p>Three</p>"
	res := e.CalculateDiff(src, dst, Options{})

	assert.Equal(t, []string{"Tre"}, res.Segments)

	out, err := e.Rebuild(res, []string{"Three"})
	require.NoError(t, err)
	assert.Equal(t, dst, out)
}

func TestCalculateDiff_MarkupNeverBecomesSegment(t *testing.T) {
	e := New()
	src := `<!-- wp:paragraph --><p class="x">Testo</p><!-- /wp:paragraph -->[button url="/"]Vai[/button]<script>var a = "no";</script>`
	res := e.CalculateDiff(src, "", Options{})

	assert.Equal(t, []string{"Testo", "Vai"}, res.Segments)
	for _, seg := range res.Segments {
		assert.NotContains(t, seg, "<")
		assert.NotContains(t, seg, "[")
	}
}

func TestRebuild_IdentityRoundTrip(t *testing.T) {
	e := New()
	sources := []string{
		"",
		"plain",
		"  padded text  ",
		"line one\nline two\n\n  indented\n",
		`<div><p>Alpha <strong>beta</strong> gamma</p></div>`,
		`[caption id="1"]<img src="a.png"/> Didascalia[/caption] fine`,
		"a < b and c > d",
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			res := e.CalculateDiff(src, "something else", Options{ExcludedShortcodes: []string{"caption"}})
			out, err := e.Rebuild(res, identity(res))
			require.NoError(t, err)
			assert.Equal(t, src, out)
		})
	}
}

func TestCalculateDiff_ExcludedShortcodesAreMasked(t *testing.T) {
	e := New()
	src := `Prima [code lang="go"]fmt.Println("x")[/code] dopo [code inline]`
	res := e.CalculateDiff(src, "", Options{ExcludedShortcodes: []string{"code"}})

	require.Len(t, res.Placeholders, 2)
	for _, seg := range res.Segments {
		assert.NotContains(t, seg, "Println")
	}
	assert.Equal(t, []string{"Prima", "dopo"}, res.Segments)

	out, err := e.Rebuild(res, []string{"Before", "after"})
	require.NoError(t, err)
	assert.Equal(t, `Before [code lang="go"]fmt.Println("x")[/code] after [code inline]`, out)
}

func TestCalculateDiff_InvalidShortcodeNameIgnored(t *testing.T) {
	e := New()
	res := e.CalculateDiff("x [a.b] y", "", Options{ExcludedShortcodes: []string{"a.b", ""}})
	assert.Empty(t, res.Placeholders)
}

func TestCalculateDiff_BracketedProseIsText(t *testing.T) {
	e := New()
	res := e.CalculateDiff("Leggi [qui sotto] il testo", "", Options{})
	assert.Equal(t, []string{"Leggi [qui sotto] il testo"}, res.Segments)

	res = e.CalculateDiff("Vedi [nota] sopra", "", Options{})
	assert.Equal(t, []string{"Vedi [nota] sopra"}, res.Segments)
}

func TestCalculateDiff_ShortcodeForms(t *testing.T) {
	e := New()
	tests := []struct {
		name string
		src  string
		opts Options
		want []string
	}{
		{name: "closing tag pairs a bare opener", src: "[box]Dentro[/box]", want: []string{"Dentro"}},
		{name: "attributes", src: `Prima [video src="a.mp4"] dopo`, want: []string{"Prima", "dopo"}},
		{name: "self closing", src: "Prima [spacer /] dopo", want: []string{"Prima", "dopo"}},
		{name: "registered bare tag", src: "Prima [toc] dopo", opts: Options{Shortcodes: []string{"TOC"}}, want: []string{"Prima", "dopo"}},
		{name: "unregistered bare tag", src: "Prima [toc] dopo", want: []string{"Prima [toc] dopo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.CalculateDiff(tt.src, "", tt.opts)
			assert.Equal(t, tt.want, res.Segments)

			out, err := e.Rebuild(res, identity(res))
			require.NoError(t, err)
			assert.Equal(t, tt.src, out)
		})
	}
}

func TestRebuild_SegmentMismatch(t *testing.T) {
	e := New()
	res := e.CalculateDiff("uno\ndue", "", Options{})
	require.Len(t, res.Segments, 2)

	_, err := e.Rebuild(res, []string{"one"})
	require.ErrorIs(t, err, ErrSegmentMismatch)
}

func TestPrepareForProvider_RoundTrip(t *testing.T) {
	e := New()
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`https?://\S+`),
		regexp.MustCompile(`%\d*\$?[sd]`),
		nil,
	}
	text := "Visita https://example.com/a e paga %1$s o %d euro"

	masked, ph := e.PrepareForProvider(text, patterns)
	assert.NotContains(t, masked, "https://")
	assert.NotContains(t, masked, "%1$s")
	assert.Len(t, ph, 3)
	assert.Equal(t, 3, strings.Count(masked, "{{XLQ_P_"))

	assert.Equal(t, text, e.RestorePlaceholders(masked, ph))
}

func TestRestorePlaceholders_ManyKeys(t *testing.T) {
	e := New()
	re := regexp.MustCompile(`#\d+`)
	var parts []string
	for i := 0; i < 12; i++ {
		parts = append(parts, "#"+strings.Repeat("1", i+1))
	}
	text := strings.Join(parts, " ")

	masked, ph := e.PrepareForProvider(text, []*regexp.Regexp{re})
	assert.Contains(t, masked, "{{XLQ_P_11}}")
	assert.Equal(t, text, e.RestorePlaceholders(masked, ph))
}

func TestTokenize_Lossless(t *testing.T) {
	src := "\t<p>\n  ciao  </p>\r\n[x]fine"
	var b strings.Builder
	for _, tok := range tokenize(src, nil) {
		b.WriteString(tok.Text)
	}
	assert.Equal(t, src, b.String())
}
