// Package taskqueue implements the document-processing task queue:
// document-processing tasks with an explicit retry count carried on
// redelivery, rather than relying on a broker's opaque delivery-count
// metadata.
package taskqueue

import (
	"github.com/google/uuid"

	"github.com/rezonia/docingest/internal/model"
)

// Task is the payload enqueued for one document-processing attempt.
type Task struct {
	DocumentID uuid.UUID              `json:"document_id"`
	Filename   string                 `json:"filename"`
	Method     model.ExtractionMethod `json:"method"`
	OCRMode    model.OCRMode          `json:"ocr"`
	RetryCount int                    `json:"-"` // carried on the X-Retry-Count header, not the body
}

// Handler processes one delivery of a Task. A returned error that classifies
// as transient triggers redelivery (up to MaxRetryCount); any other error,
// or a transient error past MaxRetryCount, is terminal for this delivery.
type Handler func(task Task) error

// isRetryEligible reports whether err should trigger redelivery, per the
// same transient/fatal split the LLM Client and Extraction Router use.
func isRetryEligible(err error) bool {
	return model.IsTransientError(err)
}
