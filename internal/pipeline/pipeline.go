// Package pipeline implements the Document Service: the orchestrator that
// wires upload, OCR, extraction, and persistence into the end-to-end
// processing flow. Deps carries every collaborator explicitly (no package
// singletons) so the service can be reconstructed with fakes in tests.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rezonia/docingest/internal/blobstore"
	"github.com/rezonia/docingest/internal/classifier"
	"github.com/rezonia/docingest/internal/ids"
	"github.com/rezonia/docingest/internal/metrics"
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/ocr"
	"github.com/rezonia/docingest/internal/repository"
	"github.com/rezonia/docingest/internal/taskqueue"
)

// Enqueuer is the task-queue dependency the service needs from the Document
// Service's point of view; both taskqueue.NATSQueue and taskqueue.InlineQueue
// satisfy it.
type Enqueuer interface {
	Enqueue(task taskqueue.Task) error
}

// OCRRouter is the subset of *ocr.Router the Document Service calls; narrowed
// to an interface so tests can substitute a fake without a real GPU client.
type OCRRouter interface {
	Route(ctx context.Context, data []byte, filename string, mode model.OCRMode) (ocr.Output, error)
}

// ExtractionRouter is the subset of *extraction.Router the Document Service
// calls.
type ExtractionRouter interface {
	Extract(ctx context.Context, documentID uuid.UUID, rawText string, pageCount int, complexity model.ComplexityAssessment, method model.ExtractionMethod) (model.ExtractionResult, error)
}

// Deps collects every collaborator the Document Service needs.
type Deps struct {
	Blob          blobstore.Store
	Documents     repository.DocumentRepository
	Borrowers     repository.BorrowerRepository
	Queue         Enqueuer
	OCR           OCRRouter
	Extraction    ExtractionRouter
	Metrics       *metrics.Metrics
	Log           zerolog.Logger
	MaxRetryCount int
}

// Service implements the Document Service's two operations: Upload accepts
// new bytes and enqueues a processing task; Process runs one delivery of
// that task through OCR, extraction, and persistence.
type Service struct {
	deps Deps
}

func New(deps Deps) *Service {
	return &Service{deps: deps}
}

// Documents exposes the Document repository for read-only lookups from the
// HTTP adapter; it does not go through Upload/Process.
func (s *Service) Documents() repository.DocumentRepository {
	return s.deps.Documents
}

// Borrowers exposes the Borrower repository for read-only lookups from the
// HTTP adapter.
func (s *Service) Borrowers() repository.BorrowerRepository {
	return s.deps.Borrowers
}

// Upload hashes data for dedupe, stores it in the blob store, creates the
// PENDING Document row, and enqueues the processing task. A second upload
// of identical bytes is rejected with DuplicateDocumentError rather than
// silently reprocessed.
func (s *Service) Upload(ctx context.Context, filename string, data []byte, method model.ExtractionMethod, ocrMode model.OCRMode) (*model.Document, error) {
	contentHash := ids.ContentHash(data)

	_, err := s.deps.Documents.GetByContentHash(ctx, contentHash)
	switch {
	case err == nil:
		return nil, &model.DuplicateDocumentError{Hash: contentHash}
	case errors.Is(err, repository.ErrNotFound):
		// expected path: no existing document with this hash
	default:
		return nil, err
	}

	docID := ids.New()
	fileType := detectFileType(data)
	key := ids.BlobKey(docID, contentHash)

	blobURI, err := s.deps.Blob.Put(ctx, key, data, fileType)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:            docID,
		Filename:      filename,
		ContentHash:   contentHash,
		FileSizeBytes: int64(len(data)),
		FileType:      fileType,
		BlobURI:       blobURI,
		Status:        model.DocumentPending,
		Method:        method,
	}
	if err := s.deps.Documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.DocumentsTotal.WithLabelValues(string(model.DocumentPending)).Inc()
	}

	task := taskqueue.Task{DocumentID: docID, Filename: filename, Method: method, OCRMode: ocrMode}
	if err := s.deps.Queue.Enqueue(task); err != nil {
		return nil, fmt.Errorf("enqueue processing task: %w", err)
	}

	// A synchronous queue (InlineQueue, or any Enqueuer that runs the task to
	// completion before returning) has already moved this Document past
	// PENDING by the time Enqueue returns. Re-fetch so the caller sees the
	// final status instead of the pre-processing snapshot.
	final, err := s.deps.Documents.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	return final, nil
}

// Process runs one delivery of task through OCR routing, complexity
// classification, extraction routing, and per-borrower persistence. A
// terminal Document is a no-op: redelivery of a task whose Document already
// reached COMPLETED or FAILED never reprocesses it.
func (s *Service) Process(ctx context.Context, task taskqueue.Task) error {
	doc, err := s.deps.Documents.Get(ctx, task.DocumentID)
	if err != nil {
		return err
	}
	if doc.IsTerminal() {
		s.deps.Log.Info().Str("document_id", doc.ID.String()).Str("status", string(doc.Status)).
			Msg("skipping already-terminal document")
		return nil
	}

	if err := s.deps.Documents.UpdateStatus(ctx, doc.ID, model.DocumentProcessing, nil); err != nil {
		return err
	}

	data, err := s.deps.Blob.Get(ctx, doc.BlobURI)
	if err != nil {
		return s.fail(ctx, doc, task, err)
	}

	ocrOut, err := s.deps.OCR.Route(ctx, data, task.Filename, task.OCRMode)
	if err != nil {
		return s.fail(ctx, doc, task, err)
	}

	complexity := classifier.Classify(ocrOut.Text, ocrOut.PageCount)

	result, err := s.deps.Extraction.Extract(ctx, doc.ID, ocrOut.Text, ocrOut.PageCount, complexity, task.Method)
	if err != nil {
		return s.fail(ctx, doc, task, err)
	}

	for _, w := range result.ValidationErrors {
		s.deps.Log.Warn().Str("document_id", doc.ID.String()).Str("validation_error", w).Msg("field validation failed")
	}

	persistFailures := s.persistBorrowers(ctx, doc.ID, result.Borrowers)

	for _, w := range result.ConsistencyWarnings {
		s.deps.Log.Info().Str("document_id", doc.ID.String()).Str("kind", w.Kind).Str("field", w.Field).
			Msg("consistency warning flagged for review")
	}

	ocrProcessed := ocrOut.Method != ocr.OCRMethodNone
	if err := s.deps.Documents.Complete(ctx, doc.ID, ocrOut.PageCount, result.MethodUsed, ocrProcessed); err != nil {
		return err
	}

	// A per-borrower persistence failure never aborts the batch, but it does
	// leave a partial-success note on the otherwise-completed Document.
	if len(persistFailures) > 0 {
		msg := fmt.Sprintf("completed with %d of %d borrowers persisted; failures: %s",
			len(result.Borrowers)-len(persistFailures), len(result.Borrowers), strings.Join(persistFailures, "; "))
		if err := s.deps.Documents.UpdateStatus(ctx, doc.ID, model.DocumentCompleted, &msg); err != nil {
			s.deps.Log.Error().Err(err).Str("document_id", doc.ID.String()).Msg("failed to record partial-persistence note")
		}
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.DocumentsTotal.WithLabelValues(string(model.DocumentCompleted)).Inc()
		s.deps.Metrics.ExtractionMethodUsed.WithLabelValues(string(result.MethodUsed)).Inc()
	}
	return nil
}

// persistBorrowers saves each extracted record independently: a single
// borrower's persistence failure is logged and counted, never aborts the
// rest of the batch. It returns one human-readable message per failure, for
// the Document's partial-success error_message.
func (s *Service) persistBorrowers(ctx context.Context, documentID uuid.UUID, records []model.BorrowerRecord) []string {
	var failures []string
	for _, rec := range records {
		borrower := toBorrower(documentID, rec)
		if err := s.deps.Borrowers.Save(ctx, borrower); err != nil {
			persistErr := &model.PersistenceError{BorrowerName: rec.Name, Cause: err}
			s.deps.Log.Error().Err(persistErr).Str("document_id", documentID.String()).Msg("failed to persist borrower")
			failures = append(failures, persistErr.Error())
			if s.deps.Metrics != nil {
				s.deps.Metrics.BorrowerPersistFails.Inc()
			}
			continue
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.BorrowersPersisted.Inc()
		}
	}
	return failures
}

// toBorrower converts the transient extraction shape into the persistent
// Borrower row, hashing the SSN through the single centralized helper so a
// raw SSN never reaches the repository layer.
func toBorrower(documentID uuid.UUID, rec model.BorrowerRecord) *model.Borrower {
	b := &model.Borrower{
		ID:              rec.ID,
		DocumentID:      documentID,
		Name:            rec.Name,
		ConfidenceScore: rec.Confidence,
		IncomeRecords:   rec.IncomeHistory,
		AccountNumbers:  rec.AccountNumbers,
		Sources:         rec.Sources,
	}
	if rec.SSN != "" {
		hash := ids.HashSSN(rec.SSN)
		b.SSNHash = &hash
	}
	if rec.Address != nil && !rec.Address.IsZero() {
		addr := rec.Address.Serialize()
		b.Address = &addr
	}
	return b
}

func (s *Service) fail(ctx context.Context, doc *model.Document, task taskqueue.Task, cause error) error {
	if model.IsTransientError(cause) && task.RetryCount < s.deps.MaxRetryCount {
		s.deps.Log.Warn().Err(cause).Str("document_id", doc.ID.String()).
			Int("retry_count", task.RetryCount).Msg("transient failure, leaving document in PROCESSING for redelivery")
		return cause
	}

	msg := cause.Error()
	if err := s.deps.Documents.UpdateStatus(ctx, doc.ID, model.DocumentFailed, &msg); err != nil {
		s.deps.Log.Error().Err(err).Str("document_id", doc.ID.String()).Msg("failed to record terminal failure status")
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.DocumentsTotal.WithLabelValues(string(model.DocumentFailed)).Inc()
	}
	return &model.TerminalFailureError{Cause: cause}
}

var pdfMagic = []byte("%PDF-")

// detectFileType sniffs the MIME type of uploaded bytes by magic number,
// falling back to application/octet-stream for anything unrecognized.
func detectFileType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return "application/pdf"
	case len(data) >= 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
