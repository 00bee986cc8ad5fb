package testutil

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// JobStateInfo is one translation_jobs row as seen by InspectJobStates.
type JobStateInfo struct {
	ID         string
	ObjectType string
	ObjectID   string
	Field      string
	State      string
	Retries    int
	LastError  *string
}

// InspectJobStates returns every translation job in creation order.
func InspectJobStates(t TestingTB, db *sql.DB) []JobStateInfo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT id, object_type, object_id, field, state, retries, last_error
		FROM translation_jobs
		ORDER BY created_at, id`)
	if err != nil {
		t.Fatalf("Failed to query job states: %v", err)
	}
	defer closeAndLog(t, "job state rows", rows)

	var jobs []JobStateInfo
	for rows.Next() {
		var j JobStateInfo
		if err := rows.Scan(&j.ID, &j.ObjectType, &j.ObjectID, &j.Field, &j.State, &j.Retries, &j.LastError); err != nil {
			t.Fatalf("Failed to scan job state: %v", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Error iterating over job states: %v", err)
	}
	return jobs
}

// LogJobStates logs every job, one line each, under message.
func LogJobStates(t TestingTB, db *sql.DB, message string) {
	t.Helper()
	t.Logf("=== %s ===", message)
	for i, j := range InspectJobStates(t, db) {
		t.Logf("job %d: %s:%s/%s state=%s retries=%d last_error=%v",
			i+1, j.ObjectType, j.ObjectID, j.Field, j.State, j.Retries, j.LastError)
	}
}

// ConcurrentTestRunner runs queue operations against the same database at once.
type ConcurrentTestRunner struct {
	t  TestingTB
	db *sql.DB
}

// NewConcurrentTestRunner returns a runner bound to db.
func NewConcurrentTestRunner(t TestingTB, db *sql.DB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t, db: db}
}

// RunConcurrent starts every fn together and returns their errors in argument order.
func (r *ConcurrentTestRunner) RunConcurrent(fns ...func() error) []error {
	r.t.Helper()
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}

// AssertNoErrors fails the test on the first non-nil error.
func (r *ConcurrentTestRunner) AssertNoErrors(errs []error) {
	r.t.Helper()
	for i, err := range errs {
		if err != nil {
			r.t.Fatalf("Concurrent operation %d failed: %v", i, err)
		}
	}
}
