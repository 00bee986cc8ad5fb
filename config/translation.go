package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TranslationConfig contains language, budget and diff configuration.
type TranslationConfig struct {
	SourceLang  string   `env:"TRANSLATION_SOURCE_LANG"  envDefault:"en"`
	TargetLangs []string `env:"TRANSLATION_TARGET_LANGS" envDefault:"fr"`

	// LegacySingleLanguage resolves a target entity that predates per-language
	// pairing when only one target language is configured.
	LegacySingleLanguage bool `env:"TRANSLATION_LEGACY_SINGLE_LANGUAGE" envDefault:"true"`

	// BudgetCeiling caps characters sent per run. Zero disables the budget.
	BudgetCeiling int `env:"TRANSLATION_BUDGET_CEILING" envDefault:"200000"`

	ChunkLimit     int `env:"TRANSLATION_CHUNK_LIMIT"     envDefault:"4500"`
	PayloadCeiling int `env:"TRANSLATION_PAYLOAD_CEILING" envDefault:"10485760"`

	ForcedFullFields []string `env:"TRANSLATION_FORCED_FULL_FIELDS" envDefault:"post_title,post_name,name,slug,title"`
	StaleSourceMin   int      `env:"TRANSLATION_STALE_SOURCE_MIN"   envDefault:"500"`
	StaleTargetMax   int      `env:"TRANSLATION_STALE_TARGET_MAX"   envDefault:"100"`
	StaleRatio       int      `env:"TRANSLATION_STALE_RATIO"        envDefault:"3"`

	ExcludedShortcodes []string `env:"TRANSLATION_EXCLUDED_SHORTCODES"`
	// Shortcodes are names treated as markup even in bare [name] form.
	Shortcodes []string `env:"TRANSLATION_SHORTCODES" envDefault:"audio,caption,embed,gallery,playlist,video"`
	// ProtectedPatterns are regular expressions whose matches are never sent to the provider.
	ProtectedPatterns []string `env:"TRANSLATION_PROTECTED_PATTERNS" envSeparator:";"`

	// DryRun records previews instead of writing translations.
	DryRun bool `env:"TRANSLATION_DRY_RUN" envDefault:"false"`
	// CostPerMillion estimates dry-run cost per million characters.
	CostPerMillion float64 `env:"TRANSLATION_COST_PER_MILLION" envDefault:"20"`

	RetryAttempts int           `env:"TRANSLATION_RETRY_ATTEMPTS" envDefault:"2"`
	RetryCeiling  time.Duration `env:"TRANSLATION_RETRY_CEILING"  envDefault:"45s"`
}

// Sanitize applies guardrails to translation configuration values.
func (t *TranslationConfig) Sanitize() {
	t.SourceLang = strings.ToLower(strings.TrimSpace(t.SourceLang))
	if t.SourceLang == "" {
		t.SourceLang = "en"
	}
	t.TargetLangs = cleanLangs(t.TargetLangs, t.SourceLang)

	if t.BudgetCeiling < 0 {
		t.BudgetCeiling = 0
	}
	if t.BudgetCeiling > 1_000_000 {
		t.BudgetCeiling = 1_000_000
	}
	if t.ChunkLimit > 0 && t.ChunkLimit < 500 {
		t.ChunkLimit = 500
	}
	if t.PayloadCeiling <= 0 {
		t.PayloadCeiling = 10 << 20
	}
	if t.RetryAttempts < 1 {
		t.RetryAttempts = 1
	}
	if t.RetryAttempts > 10 {
		t.RetryAttempts = 10
	}
	if t.RetryCeiling < time.Second {
		t.RetryCeiling = time.Second
	}
	if t.CostPerMillion < 0 {
		t.CostPerMillion = 0
	}
}

// CompileProtectedPatterns compiles ProtectedPatterns.
func (t TranslationConfig) CompileProtectedPatterns() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(t.ProtectedPatterns))
	for _, p := range t.ProtectedPatterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile protected pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// cleanLangs lower-cases and de-duplicates language codes and drops the source language.
func cleanLangs(langs []string, source string) []string {
	seen := make(map[string]struct{}, len(langs))
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || l == source {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// ProviderConfig configures the OpenAI-compatible translation provider.
type ProviderConfig struct {
	BaseURL string        `env:"PROVIDER_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey  string        `env:"PROVIDER_API_KEY"`
	Model   string        `env:"PROVIDER_MODEL"    envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"PROVIDER_TIMEOUT"  envDefault:"30s"`
	// PromptsFile is an optional YAML file overriding the per-domain system prompts.
	PromptsFile string `env:"PROVIDER_PROMPTS_FILE"`

	// OAuth client credentials, used instead of APIKey when TokenURL is set.
	OAuthTokenURL     string   `env:"PROVIDER_OAUTH_TOKEN_URL"`
	OAuthClientID     string   `env:"PROVIDER_OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"PROVIDER_OAUTH_CLIENT_SECRET"`
	OAuthScopes       []string `env:"PROVIDER_OAUTH_SCOPES" envSeparator:","`
}

// Sanitize applies guardrails to provider configuration values.
func (p *ProviderConfig) Sanitize() {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	p.APIKey = strings.TrimSpace(p.APIKey)
	p.Model = strings.TrimSpace(p.Model)
	p.PromptsFile = strings.TrimSpace(p.PromptsFile)
	p.OAuthTokenURL = strings.TrimSpace(p.OAuthTokenURL)
	p.OAuthClientID = strings.TrimSpace(p.OAuthClientID)
	p.OAuthClientSecret = strings.TrimSpace(p.OAuthClientSecret)
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
}
