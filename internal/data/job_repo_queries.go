package data

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/data/pgxutil"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
)

// DefaultClaimLimit is the batch size used when a caller passes a non-positive limit.
const DefaultClaimLimit = 5

// priorityClause is a CASE expression ranking field names plus its bind args.
type priorityClause struct {
	expr string
	args []any
}

// buildPriorityClause turns a field priority list into a CASE expression over
// the field column. Parameters are numbered from firstArg.
func buildPriorityClause(priority model.FieldPriority, firstArg int) priorityClause {
	var (
		b          strings.Builder
		args       []any
		fallback   = len(priority)
		namespaced = -1
		whens      int
	)
	b.WriteString("CASE")
	for i, pattern := range priority {
		switch {
		case pattern == model.PriorityAny:
			fallback = i
			continue
		case pattern == model.PriorityAnyNamespaced:
			namespaced = i
			continue
		case strings.HasSuffix(pattern, "*"):
			fmt.Fprintf(&b, ` WHEN field LIKE $%d ESCAPE '\' THEN %d`, firstArg+len(args), i)
			args = append(args, escapeLike(strings.TrimSuffix(pattern, "*"))+"%")
		default:
			fmt.Fprintf(&b, " WHEN field = $%d THEN %d", firstArg+len(args), i)
			args = append(args, pattern)
		}
		whens++
	}
	// Explicit entries win over the namespaced fallback, so it goes last.
	if namespaced >= 0 {
		fmt.Fprintf(&b, " WHEN field LIKE '%%:%%' THEN %d", namespaced)
		whens++
	}
	if whens == 0 {
		// Every field shares one tier.
		return priorityClause{}
	}
	fmt.Fprintf(&b, " ELSE %d END", fallback)
	return priorityClause{expr: b.String(), args: args}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildClaimSQL builds the single statement that selects and reserves a batch.
// $1 is the limit, $2 the claim timestamp, priority args follow.
func buildClaimSQL(priority model.FieldPriority) (string, []any) {
	clause := buildPriorityClause(priority, 3)
	orderBy := "created_at ASC, id ASC"
	if clause.expr != "" {
		orderBy = clause.expr + ", " + orderBy
	}
	query := `
  WITH cte AS (
    SELECT id FROM translation_jobs
    WHERE state IN ('pending', 'outdated')
    ORDER BY ` + orderBy + `
    LIMIT $1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE translation_jobs j
  SET state = 'translating', updated_at = $2
  FROM cte
  WHERE j.id = cte.id
  RETURNING j.id, j.object_type, j.object_id, j.field, j.hash_source, j.state, j.retries, j.last_error, j.created_at, j.updated_at`
	return query, clause.args
}

// Claim atomically moves up to Limit pending or outdated jobs to translating.
// Jobs locked by a concurrent claim are skipped, so two claimers never receive
// the same job. The batch is returned in claim order.
func (r *JobRepo) Claim(ctx context.Context, params core.ClaimJobsParams) ([]*model.Job, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultClaimLimit
	}
	priority := params.Priority
	if priority == nil {
		priority = model.DefaultFieldPriority()
	}

	query, priorityArgs := buildClaimSQL(priority)
	args := append([]any{limit, r.timeProvider.Now().UTC()}, priorityArgs...)

	var jobs []*model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("claim translation jobs: %w", err)
			}
			defer rows.Close()

			jobs, err = collectJobs(rows)
			if err != nil {
				return fmt.Errorf("collect claimed jobs: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	// UPDATE ... RETURNING does not preserve the CTE order.
	sortClaimed(jobs, priority)
	return jobs, nil
}

func sortClaimed(jobs []*model.Job, priority model.FieldPriority) {
	sort.SliceStable(jobs, func(i, j int) bool {
		ri, rj := priority.Rank(jobs[i].Field), priority.Rank(jobs[j].Field)
		if ri != rj {
			return ri < rj
		}
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}

// CountByState returns the number of jobs in every state. States without jobs report zero.
func (r *JobRepo) CountByState(ctx context.Context) (model.StateCounts, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT state, COUNT(*) FROM translation_jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count jobs by state: %w", err)
	}
	defer rows.Close()

	counts := model.NewStateCounts()
	for rows.Next() {
		var (
			state string
			n     int64
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts[model.JobState(state)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state counts: %w", err)
	}
	return counts, nil
}

// CountOutstanding counts the pending, translating and outdated jobs of one entity.
func (r *JobRepo) CountOutstanding(ctx context.Context, objectType model.ObjectType, objectID string) (int, error) {
	if !objectType.Valid() {
		return 0, apperrors.ValidationField("object_type", fmt.Sprintf("unsupported object type: %q", objectType))
	}

	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM translation_jobs
		WHERE object_type = $1 AND object_id = $2
		  AND state IN ('pending', 'translating', 'outdated')
	`, string(objectType), objectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outstanding jobs: %w", err)
	}
	return n, nil
}
