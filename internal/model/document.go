package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the lifecycle state of an uploaded Document.
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentFailed     DocumentStatus = "failed"
)

// ExtractionMethod selects which extraction strategy the router should use.
// "auto" lets the router choose with fallback.
type ExtractionMethod string

const (
	MethodDocling    ExtractionMethod = "docling"
	MethodLangExtract ExtractionMethod = "langextract"
	MethodAuto       ExtractionMethod = "auto"
)

func ParseExtractionMethod(s string) (ExtractionMethod, error) {
	switch ExtractionMethod(s) {
	case MethodDocling, MethodLangExtract, MethodAuto:
		return ExtractionMethod(s), nil
	default:
		return "", NewValidationError("method", "must be one of docling, langextract, auto")
	}
}

// OCRMode selects the OCR Router's decision policy.
type OCRMode string

const (
	OCRModeAuto  OCRMode = "auto"
	OCRModeForce OCRMode = "force"
	OCRModeSkip  OCRMode = "skip"
)

func ParseOCRMode(s string) (OCRMode, error) {
	switch OCRMode(s) {
	case OCRModeAuto, OCRModeForce, OCRModeSkip:
		return OCRMode(s), nil
	default:
		return "", NewValidationError("ocr_mode", "must be one of auto, force, skip")
	}
}

// Document is the persistent record of an uploaded file and its processing
// lifecycle. Content hash is unique across non-deleted Documents; status
// transitions PENDING -> PROCESSING -> {COMPLETED, FAILED} and never back.
type Document struct {
	ID               uuid.UUID
	Filename         string
	ContentHash      string // sha256, hex-encoded
	FileSizeBytes    int64
	FileType         string
	BlobURI          string
	Status           DocumentStatus
	Method           ExtractionMethod
	PageCount        *int
	ErrorMessage     *string
	ExtractionMethod *string // method actually used, set on completion
	OCRProcessed     *bool
	CreatedAt        time.Time
}

// IsTerminal reports whether the Document has already reached a terminal
// status; re-delivery of a processing task for a terminal Document is a
// no-op.
func (d *Document) IsTerminal() bool {
	return d.Status == DocumentCompleted || d.Status == DocumentFailed
}
