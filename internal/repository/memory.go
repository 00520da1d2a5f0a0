package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rezonia/docingest/internal/model"
)

// MemoryDocumentRepository is an in-process DocumentRepository for tests.
type MemoryDocumentRepository struct {
	mu   sync.Mutex
	docs map[uuid.UUID]model.Document
}

func NewMemoryDocumentRepository() *MemoryDocumentRepository {
	return &MemoryDocumentRepository{docs: make(map[uuid.UUID]model.Document)}
}

func (r *MemoryDocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *MemoryDocumentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *MemoryDocumentRepository) GetByContentHash(ctx context.Context, contentHash string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ContentHash == contentHash {
			d := d
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryDocumentRepository) List(ctx context.Context, limit, offset int) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.Document, 0, len(r.docs))
	for _, d := range r.docs {
		all = append(all, d)
	}
	return paginate(all, limit, offset), nil
}

func (r *MemoryDocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.ErrorMessage = errorMessage
	r.docs[id] = d
	return nil
}

func (r *MemoryDocumentRepository) Complete(ctx context.Context, id uuid.UUID, pageCount int, method model.ExtractionMethod, ocrProcessed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = model.DocumentCompleted
	d.PageCount = &pageCount
	methodStr := string(method)
	d.ExtractionMethod = &methodStr
	d.OCRProcessed = &ocrProcessed
	r.docs[id] = d
	return nil
}

func paginate(all []model.Document, limit, offset int) []model.Document {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) || limit <= 0 {
		end = len(all)
	}
	return all[offset:end]
}

// MemoryBorrowerRepository is an in-process BorrowerRepository for tests.
type MemoryBorrowerRepository struct {
	mu        sync.Mutex
	borrowers map[uuid.UUID]model.Borrower
}

func NewMemoryBorrowerRepository() *MemoryBorrowerRepository {
	return &MemoryBorrowerRepository{borrowers: make(map[uuid.UUID]model.Borrower)}
}

func (r *MemoryBorrowerRepository) Save(ctx context.Context, b *model.Borrower) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.borrowers[b.ID] = *b
	return nil
}

func (r *MemoryBorrowerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Borrower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.borrowers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBorrowerRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.Borrower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Borrower
	for _, b := range r.borrowers {
		if b.DocumentID == documentID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *MemoryBorrowerRepository) List(ctx context.Context, limit, offset int) ([]model.Borrower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.Borrower, 0, len(r.borrowers))
	for _, b := range r.borrowers {
		all = append(all, b)
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) || limit <= 0 {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryBorrowerRepository) Search(ctx context.Context, nameQuery string, limit, offset int) ([]model.Borrower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(nameQuery)
	var matches []model.Borrower
	for _, b := range r.borrowers {
		if strings.Contains(strings.ToLower(b.Name), q) {
			matches = append(matches, b)
		}
	}
	if offset >= len(matches) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matches) || limit <= 0 {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func (r *MemoryBorrowerRepository) SearchByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]model.Borrower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []model.Borrower
	for _, b := range r.borrowers {
		for _, acc := range b.AccountNumbers {
			if acc.Number == accountNumber {
				matches = append(matches, b)
				break
			}
		}
	}
	if offset >= len(matches) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matches) || limit <= 0 {
		end = len(matches)
	}
	return matches[offset:end], nil
}
