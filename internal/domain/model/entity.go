package model

import "time"

// Entity is a snapshot of a host-managed record. The processor never holds a live
// handle into host storage; it reads and writes fields through the content store.
type Entity struct {
	ID            string     `json:"id"`
	Type          ObjectType `json:"object_type"`
	Lang          string     `json:"lang"`
	TranslationOf string     `json:"translation_of,omitempty"`
}

// IsTranslationOf reports whether e is registered as a translation of source.
func (e *Entity) IsTranslationOf(source *Entity) bool {
	return e != nil && source != nil && e.TranslationOf == source.ID
}

// Object is a structured value with named properties, the counterpart of a host
// object serialized inside a field (for example a block attribute set).
type Object struct {
	Class      string         `json:"class,omitempty"`
	Properties map[string]any `json:"properties"`
}

// FieldStatus is the per-field sync flag kept on a target entity.
type FieldStatus string

const (
	// FieldStatusSynced marks a field whose translation matches the current source.
	FieldStatusSynced FieldStatus = "synced"
	// FieldStatusFailed marks a field whose last translation attempt failed.
	FieldStatusFailed FieldStatus = "failed"
)

// Valid returns true if the FieldStatus is known.
func (s FieldStatus) Valid() bool {
	return s == FieldStatusSynced || s == FieldStatusFailed
}

// EntityStatus is the aggregate translation status of a target entity.
type EntityStatus string

const (
	// EntityStatusPending means the source still has queued work.
	EntityStatusPending EntityStatus = "pending"
	// EntityStatusPartial means at least one tracked field is not synced.
	EntityStatusPartial EntityStatus = "partial"
	// EntityStatusCompleted means every tracked field is synced.
	EntityStatusCompleted EntityStatus = "completed"
)

// Valid returns true if the EntityStatus is known.
func (s EntityStatus) Valid() bool {
	return s == EntityStatusPending || s == EntityStatusPartial || s == EntityStatusCompleted
}

// EntityStatusRecord is the persisted aggregate status of a target entity.
type EntityStatusRecord struct {
	TargetType ObjectType   `json:"target_type"`
	TargetID   string       `json:"target_id"`
	Status     EntityStatus `json:"status"`
	LastSyncAt *time.Time   `json:"last_sync_at,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// TranslatedEvent is emitted after a field translation was persisted to a target entity.
type TranslatedEvent struct {
	JobID      string    `json:"job_id"`
	Source     Entity    `json:"source"`
	Target     Entity    `json:"target"`
	Field      string    `json:"field"`
	TargetLang string    `json:"target_lang"`
	Value      any       `json:"value"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Preview is the artifact recorded instead of a write when running in dry-run mode.
type Preview struct {
	ID                string     `json:"id"`
	JobID             string     `json:"job_id"`
	ObjectType        ObjectType `json:"object_type"`
	ObjectID          string     `json:"object_id"`
	Field             string     `json:"field"`
	TargetLang        string     `json:"target_lang"`
	SourceExcerpt     string     `json:"source_excerpt"`
	TranslatedExcerpt string     `json:"translated_excerpt"`
	Characters        int        `json:"characters"`
	Words             int        `json:"words"`
	EstimatedCost     float64    `json:"estimated_cost"`
	CreatedAt         time.Time  `json:"created_at"`
}
