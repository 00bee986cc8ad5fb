// Package model defines the core data types shared by the translation queue, its store and its processor.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ObjectType identifies which host collaborator owns the source entity of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ObjectType string

// JobState represents the current state of a translation job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobState string

const (
	// ObjectTypePost is a document (post, page, custom post type).
	ObjectTypePost ObjectType = "post"
	// ObjectTypeTerm is a taxonomy term.
	ObjectTypeTerm ObjectType = "term"
	// ObjectTypeMenu is a navigation menu item label.
	ObjectTypeMenu ObjectType = "menu"
	// ObjectTypeComment is a user comment.
	ObjectTypeComment ObjectType = "comment"
	// ObjectTypeWidget is widget text.
	ObjectTypeWidget ObjectType = "widget"
	// ObjectTypeString is a free-standing registered string.
	ObjectTypeString ObjectType = "string"

	// JobStatePending indicates the job is waiting to be claimed.
	JobStatePending JobState = "pending"
	// JobStateTranslating indicates the job was claimed by a run.
	JobStateTranslating JobState = "translating"
	// JobStateDone indicates the field was translated and persisted.
	JobStateDone JobState = "done"
	// JobStateError indicates the last attempt failed.
	JobStateError JobState = "error"
	// JobStateSkipped indicates the run finished without writing (dry run).
	JobStateSkipped JobState = "skipped"
	// JobStateOutdated indicates the source changed after the job was queued or processed.
	JobStateOutdated JobState = "outdated"
)

// ErrQueueLocked is returned when another run holds the run lock.
var ErrQueueLocked = errors.New("translation queue is locked by another run")

// AllObjectTypes returns every supported object type.
func AllObjectTypes() []ObjectType {
	return []ObjectType{
		ObjectTypePost,
		ObjectTypeTerm,
		ObjectTypeMenu,
		ObjectTypeComment,
		ObjectTypeWidget,
		ObjectTypeString,
	}
}

// AllJobStates returns every job state in lifecycle order.
func AllJobStates() []JobState {
	return []JobState{
		JobStatePending,
		JobStateTranslating,
		JobStateDone,
		JobStateError,
		JobStateSkipped,
		JobStateOutdated,
	}
}

// Valid returns true if the ObjectType is supported.
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectTypePost, ObjectTypeTerm, ObjectTypeMenu, ObjectTypeComment, ObjectTypeWidget, ObjectTypeString:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for ObjectType.
func (t *ObjectType) UnmarshalText(text []byte) error {
	v := ObjectType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ObjectType: %q", v)
	}
	*t = v
	return nil
}

// Valid returns true if the JobState is known.
func (s JobState) Valid() bool {
	switch s {
	case JobStatePending, JobStateTranslating, JobStateDone, JobStateError, JobStateSkipped, JobStateOutdated:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for JobState.
func (s *JobState) UnmarshalText(text []byte) error {
	v := JobState(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobState: %q", v)
	}
	*s = v
	return nil
}

// Claimable reports whether a job in this state may be claimed by a run.
func (s JobState) Claimable() bool {
	return s == JobStatePending || s == JobStateOutdated
}

// ParseJobStates parses a comma-delimited list of job states.
func ParseJobStates(raw string) ([]JobState, error) {
	var states []JobState
	seen := make(map[JobState]struct{})
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		var st JobState
		if err := st.UnmarshalText([]byte(trimmed)); err != nil {
			return nil, err
		}
		if _, dup := seen[st]; dup {
			continue
		}
		seen[st] = struct{}{}
		states = append(states, st)
	}
	if len(states) == 0 {
		return nil, errors.New("at least one job state is required")
	}
	return states, nil
}

// Job is one queued unit of work translating a single field of a single entity.
type Job struct {
	ID         string     `json:"id"                   db:"id"`
	ObjectType ObjectType `json:"object_type"          db:"object_type"`
	ObjectID   string     `json:"object_id"            db:"object_id"`
	Field      string     `json:"field"                db:"field"`
	HashSource string     `json:"hash_source"          db:"hash_source"`
	State      JobState   `json:"state"                db:"state"`
	Retries    int        `json:"retries"              db:"retries"`
	LastError  *string    `json:"last_error,omitempty" db:"last_error"`
	CreatedAt  time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"           db:"updated_at"`
}

// LastErrorString returns the last error message or an empty string.
func (j *Job) LastErrorString() string {
	if j == nil || j.LastError == nil {
		return ""
	}
	return *j.LastError
}

// EnqueueRequest represents a request to queue a field for translation.
type EnqueueRequest struct {
	ObjectType ObjectType `json:"object_type"`
	ObjectID   string     `json:"object_id"`
	Field      string     `json:"field"`
	HashSource string     `json:"hash_source"`
}

// Normalize trims surrounding whitespace from the identifying fields.
func (r *EnqueueRequest) Normalize() {
	r.ObjectType = ObjectType(strings.ToLower(strings.TrimSpace(string(r.ObjectType))))
	r.ObjectID = strings.TrimSpace(r.ObjectID)
	r.Field = strings.TrimSpace(r.Field)
	r.HashSource = strings.TrimSpace(r.HashSource)
}

// Validate validates the EnqueueRequest fields.
func (r *EnqueueRequest) Validate() error {
	if r.ObjectType == "" {
		return errors.New("object type is required")
	}
	if !r.ObjectType.Valid() {
		return fmt.Errorf("unsupported object type: %q", r.ObjectType)
	}
	if r.ObjectID == "" {
		return errors.New("object id is required")
	}
	if r.Field == "" {
		return errors.New("field is required")
	}
	if r.HashSource == "" {
		return errors.New("hash source is required")
	}
	if _, err := ParseFieldSpec(r.Field); err != nil {
		return err
	}
	return nil
}

// StateCounts maps every job state to the number of jobs in it.
type StateCounts map[JobState]int64

// NewStateCounts returns counts with every known state present and zeroed.
func NewStateCounts() StateCounts {
	counts := make(StateCounts, len(AllJobStates()))
	for _, st := range AllJobStates() {
		counts[st] = 0
	}
	return counts
}

// Total returns the sum of all counts.
func (c StateCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// RunResult summarises one processor run.
type RunResult struct {
	RunID      string        `json:"run_id"`
	Claimed    int           `json:"claimed"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Errors     int           `json:"errors"`
	Reverted   int           `json:"reverted"`
	Characters int           `json:"characters"`
	BudgetHit  bool          `json:"budget_hit"`
	Duration   time.Duration `json:"duration"`
}
