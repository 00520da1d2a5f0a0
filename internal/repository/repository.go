// Package repository implements the Document and Borrower persistence
// layer: explicit queries and round trips rather than an
// ORM's eager-loading, per the no-hidden-query-explosion redesign flag.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/rezonia/docingest/internal/model"
)

// DocumentRepository persists and retrieves Document rows.
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	GetByContentHash(ctx context.Context, contentHash string) (*model.Document, error)
	List(ctx context.Context, limit, offset int) ([]model.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, errorMessage *string) error
	// Complete records a successful extraction's terminal metadata in one
	// round trip: status, page count, method used, and OCR flag.
	Complete(ctx context.Context, id uuid.UUID, pageCount int, method model.ExtractionMethod, ocrProcessed bool) error
}

// BorrowerRepository persists Borrower rows and their owned children
// (income records, account numbers, source references) as one transactional
// unit per borrower.
type BorrowerRepository interface {
	// Save persists b and all of its children inside a single transaction.
	Save(ctx context.Context, b *model.Borrower) error
	Get(ctx context.Context, id uuid.UUID) (*model.Borrower, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.Borrower, error)
	List(ctx context.Context, limit, offset int) ([]model.Borrower, error)
	// Search matches borrowers whose stored name contains the query,
	// case-insensitively.
	Search(ctx context.Context, nameQuery string, limit, offset int) ([]model.Borrower, error)
	// SearchByAccountNumber matches borrowers owning an account number that
	// exactly equals accountNumber.
	SearchByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]model.Borrower, error)
}

// ErrNotFound is returned by Get-style methods when no row matches.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }
