package translate

import (
	"strings"
	"unicode/utf8"
)

// Domain is the prompt domain hint passed to the provider.
type Domain string

const (
	DomainGeneral   Domain = "general"
	DomainSEO       Domain = "seo"
	DomainMarketing Domain = "marketing"
)

var (
	seoMarkers       = []string{"seo", "yoast", "rank_math", "metadesc", "meta_description", "description", "focuskw"}
	seoPrefixes      = []string{"og_", "twitter_"}
	marketingMarkers = []string{"title", "excerpt", "tagline", "headline", "slogan", "cta", "button"}
)

// DomainFor picks the prompt domain from a field name or map key.
// SEO markers win over marketing ones ("_yoast_wpseo_title" is seo).
func DomainFor(name string) Domain {
	n := strings.ToLower(name)
	for _, m := range seoMarkers {
		if strings.Contains(n, m) {
			return DomainSEO
		}
	}
	bare := strings.TrimLeft(n, "_")
	for _, p := range seoPrefixes {
		if strings.HasPrefix(bare, p) {
			return DomainSEO
		}
	}
	for _, m := range marketingMarkers {
		if strings.Contains(n, m) {
			return DomainMarketing
		}
	}
	return DomainGeneral
}

// Policy decides when a string bypasses the diff and is retranslated whole.
type Policy struct {
	// ForcedFullFields are field names or map keys always retranslated whole.
	ForcedFullFields []string
	// A target is stale when the source has more than LongSourceMin characters
	// and the target has fewer than ShortTargetMax, or less than 1/LengthRatio
	// of the source.
	LongSourceMin  int
	ShortTargetMax int
	LengthRatio    int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ForcedFullFields: []string{"post_title", "post_name", "name", "slug", "title"},
		LongSourceMin:    500,
		ShortTargetMax:   100,
		LengthRatio:      3,
	}
}

// ForcedFull reports whether name is configured for whole retranslation.
func (p Policy) ForcedFull(name string) bool {
	if name == "" {
		return false
	}
	for _, f := range p.ForcedFullFields {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// StaleTarget reports whether target looks like a placeholder for source.
func (p Policy) StaleTarget(source, target string) bool {
	src := utf8.RuneCountInString(source)
	if p.LongSourceMin <= 0 || src <= p.LongSourceMin {
		return false
	}
	tgt := utf8.RuneCountInString(strings.TrimSpace(target))
	if tgt < p.ShortTargetMax {
		return true
	}
	return p.LengthRatio > 0 && tgt*p.LengthRatio < src
}
