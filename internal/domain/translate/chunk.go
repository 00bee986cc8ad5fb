package translate

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/target/translation-queue/internal/errors"
)

const (
	// SegmentSeparator joins the segments of one chunk in a single provider request.
	SegmentSeparator = "\n[[XLQ_SEGMENT_BREAK]]\n"
	separatorMarker  = "[[XLQ_SEGMENT_BREAK]]"

	// DefaultChunkLimit is the default maximum characters per provider request.
	DefaultChunkLimit = 4500
	// MinChunkLimit is the smallest accepted chunk limit.
	MinChunkLimit = 500
	// DefaultPayloadCeiling bounds the aggregate bytes of all segments of one value.
	DefaultPayloadCeiling = 10 << 20
)

// NormalizeChunkLimit applies the default and the floor to a configured limit.
func NormalizeChunkLimit(limit int) int {
	if limit <= 0 {
		return DefaultChunkLimit
	}
	if limit < MinChunkLimit {
		return MinChunkLimit
	}
	return limit
}

// Chunk groups consecutive segments so that each joined chunk stays within limit
// characters. A segment longer than limit is sent alone.
func Chunk(segments []string, limit int) [][]string {
	if len(segments) == 0 {
		return nil
	}
	sepLen := utf8.RuneCountInString(SegmentSeparator)

	var (
		chunks  [][]string
		current []string
		size    int
	)
	for _, seg := range segments {
		n := utf8.RuneCountInString(seg)
		next := size + n
		if len(current) > 0 {
			next += sepLen
		}
		if len(current) > 0 && next > limit {
			chunks = append(chunks, current)
			current, next = nil, n
		}
		current = append(current, seg)
		size = next
	}
	return append(chunks, current)
}

// JoinChunk joins the segments of a chunk for a single provider request.
func JoinChunk(chunk []string) string {
	return strings.Join(chunk, SegmentSeparator)
}

// SplitChunk splits a provider response back into want pieces. Missing pieces are
// filled with "" and surplus pieces are dropped.
func SplitChunk(response string, want int) []string {
	if want <= 0 {
		return nil
	}
	parts := strings.Split(response, separatorMarker)
	out := make([]string, want)
	for i := 0; i < want && i < len(parts); i++ {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out
}

// CheckPayload fails when the aggregate size of segments exceeds ceiling bytes.
// A non-positive ceiling falls back to DefaultPayloadCeiling.
func CheckPayload(segments []string, ceiling int) error {
	if ceiling <= 0 {
		ceiling = DefaultPayloadCeiling
	}
	total := 0
	for _, seg := range segments {
		total += len(seg)
	}
	if total > ceiling {
		return apperrors.Wrapf(ErrPayloadTooLarge, apperrors.ErrCodeResourceLimit,
			"%d bytes across %d segments exceeds the %d byte ceiling", total, len(segments), ceiling)
	}
	return nil
}

// CharCount counts characters the way the budget does.
func CharCount(segments []string) int {
	n := 0
	for _, seg := range segments {
		n += utf8.RuneCountInString(seg)
	}
	return n
}
