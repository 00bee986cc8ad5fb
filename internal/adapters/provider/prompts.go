package provider

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is used when no prompts file is configured or it omits a prompt.
const DefaultSystemPrompt = `You are a professional translator for a content management system.
Translate the user message from {{source_lang}} to {{target_lang}}.

Rules:
- Return only the translation, without commentary or quotes.
- Keep HTML tags, shortcodes, URLs and placeholder tokens exactly as they appear.
- The message may contain several segments separated by a line holding [[XLQ_SEGMENT_BREAK]].
  Keep every separator line in place and translate each segment independently.
- Preserve leading and trailing whitespace of every segment.`

var defaultDomainPrompts = map[string]string{
	"seo": `The text is search engine metadata. Keep it concise, keep the primary keyword
near the start, and respect typical title and description lengths.`,
	"marketing": `The text is marketing copy such as a headline or call to action. Favour a
natural, persuasive tone over a literal rendering.`,
}

// Prompts holds the system prompts sent with every provider request.
type Prompts struct {
	// System is the base prompt. {{source_lang}} and {{target_lang}} are substituted.
	System string `yaml:"system"`
	// Domains appends a hint to the system prompt for a domain (seo, marketing, ...).
	Domains map[string]string `yaml:"domains"`
	// Languages maps language codes to display names used in the prompt.
	Languages map[string]string `yaml:"languages"`
}

// DefaultPrompts returns the built-in prompts.
func DefaultPrompts() Prompts {
	domains := make(map[string]string, len(defaultDomainPrompts))
	for k, v := range defaultDomainPrompts {
		domains[k] = v
	}
	return Prompts{System: DefaultSystemPrompt, Domains: domains}
}

// LoadPrompts reads prompts from a YAML file. An empty path or a missing file
// yields the defaults; entries absent from the file keep their default value.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	path = strings.TrimSpace(path)
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prompts, nil
		}
		return Prompts{}, fmt.Errorf("read prompts file: %w", err)
	}

	var file Prompts
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Prompts{}, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	if strings.TrimSpace(file.System) != "" {
		prompts.System = file.System
	}
	for k, v := range file.Domains {
		prompts.Domains[strings.ToLower(k)] = v
	}
	if len(file.Languages) > 0 {
		prompts.Languages = make(map[string]string, len(file.Languages))
		for k, v := range file.Languages {
			prompts.Languages[strings.ToLower(k)] = v
		}
	}
	return prompts, nil
}

// Render builds the system prompt for one request.
func (p Prompts) Render(sourceLang, targetLang, domain string) string {
	system := p.System
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	out := strings.NewReplacer(
		"{{source_lang}}", p.languageName(sourceLang),
		"{{target_lang}}", p.languageName(targetLang),
	).Replace(system)

	if hint, ok := p.Domains[strings.ToLower(domain)]; ok && strings.TrimSpace(hint) != "" {
		out += "\n\n" + strings.TrimSpace(hint)
	}
	return out
}

func (p Prompts) languageName(code string) string {
	if name, ok := p.Languages[strings.ToLower(code)]; ok && name != "" {
		return name
	}
	return code
}
