// Package diff computes which parts of a source string need translation relative
// to its existing translated counterpart, and rebuilds the full string once those
// parts have been translated.
//
// Strings are tokenized into structural tokens (HTML tags and comments, shortcode
// tags, placeholders), whitespace literals and text runs. Token sequences are
// compared with a longest-matching-block sequence matcher; source text tokens that
// fall inside non-equal regions become segments. Everything else is kept verbatim.
package diff

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// TokenKind classifies a token produced by the tokenizer.
type TokenKind uint8

const (
	// KindText is translatable text.
	KindText TokenKind = iota
	// KindLiteral is whitespace or a line break kept verbatim.
	KindLiteral
	// KindStructural is markup that must never be translated.
	KindStructural
)

// Token is one piece of the rebuild skeleton. Segment is the index into
// Result.Segments the token is replaced by, or -1 when it is kept as is.
type Token struct {
	Text    string
	Kind    TokenKind
	Segment int
}

// Placeholders maps placeholder markers to the original text they stand for.
type Placeholders map[string]string

// Options tune a diff calculation.
type Options struct {
	// ExcludedShortcodes names shortcodes whose whole body (enclosing or
	// self-closing form) is masked and passed through untouched.
	ExcludedShortcodes []string
	// Shortcodes are names whose bare [name] tag is markup even without a
	// closing tag. Closing tags, tags with attributes and self-closing tags
	// are always markup.
	Shortcodes []string
}

// Result is the outcome of CalculateDiff.
type Result struct {
	Segments     []string
	Tokens       []Token
	Placeholders Placeholders
}

// Empty reports whether nothing needs translation.
func (r Result) Empty() bool {
	return len(r.Segments) == 0
}

// ErrSegmentMismatch is returned by Rebuild when the number of translations does
// not match the number of segments.
var ErrSegmentMismatch = errors.New("translated segment count does not match diff")

const (
	shortcodePlaceholderFmt = "{{XLQ_S_%d}}"
	providerPlaceholderFmt  = "{{XLQ_P_%d}}"
)

var structuralPattern = regexp.MustCompile(
	`(?is)<!--.*?-->` +
		`|<script\b[^>]*>.*?</script>` +
		`|<style\b[^>]*>.*?</style>` +
		`|</?[a-z][^<>]*>` +
		`|\[/?[a-z][\w-]*(?:\s[^\[\]<>]*)?/?\]` +
		`|\{\{XLQ_[SP]_\d+\}\}`,
)

// Engine is safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	shortcodes map[string]*regexp.Regexp
}

// New returns a ready Engine.
func New() *Engine {
	return &Engine{shortcodes: make(map[string]*regexp.Regexp)}
}

// CalculateDiff diffs source against target and returns the segments of source
// that need translation together with the skeleton needed to rebuild it.
func (e *Engine) CalculateDiff(source, target string, opts Options) Result {
	masked, placeholders := e.maskShortcodes(source, opts.ExcludedShortcodes)
	maskedTarget, _ := e.maskShortcodes(target, opts.ExcludedShortcodes)

	known := knownShortcodes(opts)
	srcTokens := tokenize(masked, known)
	dstTokens := tokenize(maskedTarget, known)

	matcher := difflib.NewMatcherWithJunk(tokenKeys(srcTokens), tokenKeys(dstTokens), false, nil)

	var segments []string
	for _, op := range matcher.GetOpCodes() {
		if op.Tag != 'r' && op.Tag != 'd' {
			continue
		}
		for i := op.I1; i < op.I2; i++ {
			if srcTokens[i].Kind != KindText {
				continue
			}
			srcTokens[i].Segment = len(segments)
			segments = append(segments, srcTokens[i].Text)
		}
	}

	return Result{Segments: segments, Tokens: srcTokens, Placeholders: placeholders}
}

// Rebuild substitutes translations into the skeleton and restores masked spans.
func (e *Engine) Rebuild(res Result, translations []string) (string, error) {
	if len(translations) != len(res.Segments) {
		return "", fmt.Errorf("%w: want %d, got %d", ErrSegmentMismatch, len(res.Segments), len(translations))
	}
	var b strings.Builder
	for _, tok := range res.Tokens {
		if tok.Segment >= 0 {
			b.WriteString(translations[tok.Segment])
			continue
		}
		b.WriteString(tok.Text)
	}
	return e.RestorePlaceholders(b.String(), res.Placeholders), nil
}

// PrepareForProvider replaces every match of the protected patterns with a
// reversible placeholder so the provider never sees it.
func (e *Engine) PrepareForProvider(text string, patterns []*regexp.Regexp) (string, Placeholders) {
	placeholders := Placeholders{}
	for _, re := range patterns {
		if re == nil {
			continue
		}
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			key := fmt.Sprintf(providerPlaceholderFmt, len(placeholders))
			placeholders[key] = match
			return key
		})
	}
	return text, placeholders
}

// RestorePlaceholders puts masked spans back in place.
func (e *Engine) RestorePlaceholders(text string, placeholders Placeholders) string {
	if len(placeholders) == 0 {
		return text
	}
	keys := make([]string, 0, len(placeholders))
	for k := range placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, placeholders[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (e *Engine) maskShortcodes(text string, names []string) (string, Placeholders) {
	placeholders := Placeholders{}
	if text == "" {
		return text, placeholders
	}
	for _, name := range names {
		re := e.shortcodePattern(name)
		if re == nil {
			continue
		}
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			key := fmt.Sprintf(shortcodePlaceholderFmt, len(placeholders))
			placeholders[key] = match
			return key
		})
	}
	return text, placeholders
}

var shortcodeName = regexp.MustCompile(`^[A-Za-z][\w-]*$`)

func (e *Engine) shortcodePattern(name string) *regexp.Regexp {
	name = strings.TrimSpace(name)
	if !shortcodeName.MatchString(name) {
		return nil
	}

	e.mu.RLock()
	re, ok := e.shortcodes[name]
	e.mu.RUnlock()
	if ok {
		return re
	}

	q := regexp.QuoteMeta(name)
	re = regexp.MustCompile(`(?s)\[` + q + `\b[^\]]*\].*?\[/` + q + `\]|\[` + q + `\b[^\]]*\]`)

	e.mu.Lock()
	e.shortcodes[name] = re
	e.mu.Unlock()
	return re
}

// bracketTag splits a [..] candidate into its name and what follows it.
var bracketTag = regexp.MustCompile(`(?is)^\[(/?)([a-z][\w-]*)(.*?)(/?)\]$`)

// tokenize splits s into tokens. A bracketed run is a shortcode only when it
// is a closing tag, carries attributes, is self-closing, or is a bare tag whose
// name is known or closed elsewhere in s. "[qui sotto]" stays text.
func tokenize(s string, known map[string]struct{}) []Token {
	var out []Token
	var closed map[string]struct{}
	last := 0
	for _, loc := range structuralPattern.FindAllStringIndex(s, -1) {
		match := s[loc[0]:loc[1]]
		if strings.HasPrefix(match, "[") {
			if closed == nil {
				closed = closingNames(s)
			}
			if !isShortcodeTag(match, known, closed) {
				continue
			}
		}
		out = appendText(out, s[last:loc[0]])
		out = append(out, Token{Text: match, Kind: KindStructural, Segment: -1})
		last = loc[1]
	}
	return appendText(out, s[last:])
}

func isShortcodeTag(tag string, known, closed map[string]struct{}) bool {
	m := bracketTag.FindStringSubmatch(tag)
	if m == nil {
		return false
	}
	closing, name, rest, selfClosing := m[1] != "", strings.ToLower(m[2]), m[3], m[4] != ""
	switch {
	case closing, selfClosing, strings.Contains(rest, "="):
		return true
	}
	if _, ok := known[name]; ok {
		return true
	}
	if strings.TrimSpace(rest) != "" {
		return false
	}
	_, ok := closed[name]
	return ok
}

var closingTag = regexp.MustCompile(`(?i)\[/([a-z][\w-]*)\]`)

func closingNames(s string) map[string]struct{} {
	names := map[string]struct{}{}
	for _, m := range closingTag.FindAllStringSubmatch(s, -1) {
		names[strings.ToLower(m[1])] = struct{}{}
	}
	return names
}

func knownShortcodes(opts Options) map[string]struct{} {
	known := make(map[string]struct{}, len(opts.Shortcodes)+len(opts.ExcludedShortcodes))
	for _, list := range [][]string{opts.Shortcodes, opts.ExcludedShortcodes} {
		for _, name := range list {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				known[name] = struct{}{}
			}
		}
	}
	return known
}

func appendText(out []Token, text string) []Token {
	for text != "" {
		line, rest, hasBreak := strings.Cut(text, "\n")
		out = appendLine(out, line)
		if hasBreak {
			out = append(out, Token{Text: "\n", Kind: KindLiteral, Segment: -1})
		}
		text = rest
	}
	return out
}

func appendLine(out []Token, line string) []Token {
	core := strings.TrimSpace(line)
	if core == "" {
		if line != "" {
			out = append(out, Token{Text: line, Kind: KindLiteral, Segment: -1})
		}
		return out
	}
	start := strings.Index(line, core)
	if lead := line[:start]; lead != "" {
		out = append(out, Token{Text: lead, Kind: KindLiteral, Segment: -1})
	}
	out = append(out, Token{Text: core, Kind: KindText, Segment: -1})
	if trail := line[start+len(core):]; trail != "" {
		out = append(out, Token{Text: trail, Kind: KindLiteral, Segment: -1})
	}
	return out
}

func tokenKeys(tokens []Token) []string {
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = string(rune('0'+tok.Kind)) + tok.Text
	}
	return keys
}
