package model

import (
	"errors"
	"fmt"
	"strings"
)

// FieldKind describes which part of an entity a field spec addresses.
type FieldKind string

const (
	// FieldKindPlain addresses a top-level field such as post_content.
	FieldKindPlain FieldKind = "plain"
	// FieldKindMeta addresses a metadata key (meta:<key>).
	FieldKindMeta FieldKind = "meta"
	// FieldKindTaxonomy addresses a field of a taxonomy term (<taxonomy>:<field>).
	FieldKindTaxonomy FieldKind = "taxonomy"
)

const metaPrefix = "meta:"

// FieldSpec is the parsed form of a job field string.
type FieldSpec struct {
	Raw      string
	Kind     FieldKind
	Name     string
	Taxonomy string
}

// ParseFieldSpec parses a job field into its namespaced form.
//
// "meta:<key>" yields a meta field, "<taxonomy>:<field>" a taxonomy field
// and anything without a colon a plain field.
func ParseFieldSpec(raw string) (FieldSpec, error) {
	field := strings.TrimSpace(raw)
	if field == "" {
		return FieldSpec{}, errors.New("field is required")
	}

	if strings.HasPrefix(field, metaPrefix) {
		key := strings.TrimPrefix(field, metaPrefix)
		if strings.TrimSpace(key) == "" {
			return FieldSpec{}, fmt.Errorf("invalid field %q: meta key is empty", raw)
		}
		return FieldSpec{Raw: field, Kind: FieldKindMeta, Name: key}, nil
	}

	taxonomy, name, found := strings.Cut(field, ":")
	if !found {
		return FieldSpec{Raw: field, Kind: FieldKindPlain, Name: field}, nil
	}
	if strings.TrimSpace(taxonomy) == "" || strings.TrimSpace(name) == "" {
		return FieldSpec{}, fmt.Errorf("invalid field %q: expected <taxonomy>:<field>", raw)
	}
	if strings.Contains(name, ":") {
		return FieldSpec{}, fmt.Errorf("invalid field %q: too many separators", raw)
	}
	return FieldSpec{Raw: field, Kind: FieldKindTaxonomy, Name: name, Taxonomy: taxonomy}, nil
}

// String returns the original field string.
func (f FieldSpec) String() string {
	return f.Raw
}

// FieldPriority is an ordered list of field patterns used to rank jobs at claim time.
// Entries are exact field names, a prefix ending in "*" (e.g. "meta:*"), a bare
// "*" that sets the tier for every plain field no other entry matches, or "*:*"
// that does the same for namespaced fields such as taxonomy fields.
type FieldPriority []string

const (
	// PriorityAny is the fallback tier for unmatched fields.
	PriorityAny = "*"
	// PriorityAnyNamespaced is the fallback tier for unmatched fields containing a colon.
	PriorityAnyNamespaced = "*:*"
)

// DefaultFieldPriority serves body text first, then excerpt and title, then other
// plain fields, then taxonomy fields, and metadata last.
func DefaultFieldPriority() FieldPriority {
	return FieldPriority{"post_content", "post_excerpt", "post_title", PriorityAny, PriorityAnyNamespaced, "meta:*"}
}

// Rank returns the tier of a field; lower ranks are claimed first.
func (p FieldPriority) Rank(field string) int {
	fallback, namespaced := len(p), -1
	for i, pattern := range p {
		switch {
		case pattern == PriorityAny:
			fallback = i
		case pattern == PriorityAnyNamespaced:
			namespaced = i
		case strings.HasSuffix(pattern, "*"):
			if strings.HasPrefix(field, strings.TrimSuffix(pattern, "*")) {
				return i
			}
		case pattern == field:
			return i
		}
	}
	if namespaced >= 0 && strings.Contains(field, ":") {
		return namespaced
	}
	return fallback
}
