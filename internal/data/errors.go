package data

import apperrors "github.com/target/translation-queue/internal/errors"

// Shared sentinel errors for the status and preview repositories.
var (
	ErrEntityStatusNotFound = apperrors.NotFound("entity status not found")
	ErrTargetIDRequired     = apperrors.ValidationField("target_id", "target id is required")
	ErrJobIDRequired        = apperrors.ValidationField("job_id", "job id is required")
)
