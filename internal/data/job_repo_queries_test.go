package data

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/translation-queue/internal/domain/model"
)

func TestBuildPriorityClause_Default(t *testing.T) {
	clause := buildPriorityClause(model.DefaultFieldPriority(), 3)

	assert.Equal(t,
		`CASE WHEN field = $3 THEN 0 WHEN field = $4 THEN 1 WHEN field = $5 THEN 2 WHEN field LIKE $6 ESCAPE '\' THEN 5 WHEN field LIKE '%:%' THEN 4 ELSE 3 END`,
		clause.expr)
	assert.Equal(t, []any{"post_content", "post_excerpt", "post_title", "meta:%"}, clause.args)
}

func TestBuildPriorityClause_NoWildcard(t *testing.T) {
	clause := buildPriorityClause(model.FieldPriority{"post_title"}, 1)
	assert.Equal(t, "CASE WHEN field = $1 THEN 0 ELSE 1 END", clause.expr)
	assert.Equal(t, []any{"post_title"}, clause.args)
}

func TestBuildPriorityClause_OnlyWildcard(t *testing.T) {
	clause := buildPriorityClause(model.FieldPriority{"*"}, 3)
	assert.Empty(t, clause.expr)
	assert.Empty(t, clause.args)

	query, args := buildClaimSQL(model.FieldPriority{"*"})
	assert.Contains(t, query, "ORDER BY created_at ASC, id ASC")
	assert.Empty(t, args)
}

func TestBuildPriorityClause_NamespacedFallbackOnly(t *testing.T) {
	clause := buildPriorityClause(model.FieldPriority{"*:*", "*"}, 3)
	assert.Equal(t, "CASE WHEN field LIKE '%:%' THEN 0 ELSE 1 END", clause.expr)
	assert.Empty(t, clause.args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `meta:\_yoast\%`, escapeLike("meta:_yoast%"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

func TestBuildClaimSQL(t *testing.T) {
	query, args := buildClaimSQL(model.DefaultFieldPriority())

	assert.Contains(t, query, "FOR UPDATE SKIP LOCKED")
	assert.Contains(t, query, "state IN ('pending', 'outdated')")
	assert.Contains(t, query, "SET state = 'translating', updated_at = $2")
	assert.Contains(t, query, "ELSE 3 END, created_at ASC, id ASC")
	assert.Equal(t, 1, strings.Count(query, "LIMIT $1"))
	require.Len(t, args, 4)
}

func TestSortClaimed(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jobs := []*model.Job{
		{ID: "c", Field: "meta:_seo", CreatedAt: base},
		{ID: "b", Field: "post_title", CreatedAt: base.Add(time.Minute)},
		{ID: "e", Field: "category:name", CreatedAt: base},
		{ID: "a", Field: "post_content", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", Field: "post_content", CreatedAt: base.Add(time.Minute)},
		{ID: "f", Field: "post_content", CreatedAt: base.Add(time.Minute)},
		{ID: "g", Field: "excerpt_note", CreatedAt: base.Add(3 * time.Minute)},
	}

	sortClaimed(jobs, model.DefaultFieldPriority())

	got := make([]string, 0, len(jobs))
	for _, j := range jobs {
		got = append(got, j.ID)
	}
	assert.Equal(t, []string{"d", "f", "a", "b", "g", "e", "c"}, got)
}
