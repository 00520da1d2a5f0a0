package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rezonia/docingest/internal/ids"
	"github.com/rezonia/docingest/internal/model"
)

// PostgresBorrowerRepository is the pgx-backed BorrowerRepository. A
// borrower and its owned children (income records, account numbers, source
// references) persist inside one transaction. Save only inserts: there is no
// update or delete path, since a Borrower row is never updated after creation.
type PostgresBorrowerRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBorrowerRepository(pool *pgxpool.Pool) *PostgresBorrowerRepository {
	return &PostgresBorrowerRepository{pool: pool}
}

func (r *PostgresBorrowerRepository) Save(ctx context.Context, b *model.Borrower) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &model.StorageError{Op: "begin borrower tx", Cause: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertBorrower = `
		INSERT INTO borrowers (id, document_id, name, ssn_hash, address, confidence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, insertBorrower, b.ID, b.DocumentID, b.Name, b.SSNHash, b.Address, b.ConfidenceScore, b.CreatedAt); err != nil {
		return &model.StorageError{Op: "insert borrower", Cause: err}
	}

	for _, inc := range b.IncomeRecords {
		const q = `
			INSERT INTO income_records (id, borrower_id, amount, period, year, source_type, employer)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.Exec(ctx, q, ids.New(), b.ID, inc.Amount, inc.Period, inc.Year, inc.SourceType, inc.Employer); err != nil {
			return &model.StorageError{Op: "insert income record", Cause: err}
		}
	}

	for _, acc := range b.AccountNumbers {
		const q = `INSERT INTO account_numbers (id, borrower_id, number, type) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, q, ids.New(), b.ID, acc.Number, acc.Type); err != nil {
			return &model.StorageError{Op: "insert account number", Cause: err}
		}
	}

	for _, src := range b.Sources {
		const q = `
			INSERT INTO source_references (id, borrower_id, document_id, page, section, snippet, char_start, char_end)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		if _, err := tx.Exec(ctx, q, ids.New(), b.ID, src.DocumentID, src.Page, src.Section, src.Snippet, src.CharStart, src.CharEnd); err != nil {
			return &model.StorageError{Op: "insert source reference", Cause: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &model.StorageError{Op: "commit borrower tx", Cause: err}
	}
	return nil
}

func (r *PostgresBorrowerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Borrower, error) {
	b, err := r.scanBorrower(r.pool.QueryRow(ctx, selectBorrowerByID, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, []*model.Borrower{b}); err != nil {
		return nil, err
	}
	return b, nil
}

const selectBorrowerByID = `
	SELECT id, document_id, name, ssn_hash, address, confidence_score, created_at
	FROM borrowers WHERE id = $1`

func (r *PostgresBorrowerRepository) scanBorrower(row pgx.Row) (*model.Borrower, error) {
	var b model.Borrower
	err := row.Scan(&b.ID, &b.DocumentID, &b.Name, &b.SSNHash, &b.Address, &b.ConfidenceScore, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &model.StorageError{Op: "select borrower", Cause: err}
	}
	return &b, nil
}

func (r *PostgresBorrowerRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]model.Borrower, error) {
	const q = `
		SELECT id, document_id, name, ssn_hash, address, confidence_score, created_at
		FROM borrowers WHERE document_id = $1 ORDER BY created_at ASC`
	return r.queryList(ctx, q, documentID)
}

func (r *PostgresBorrowerRepository) List(ctx context.Context, limit, offset int) ([]model.Borrower, error) {
	const q = `
		SELECT id, document_id, name, ssn_hash, address, confidence_score, created_at
		FROM borrowers ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	return r.queryList(ctx, q, limit, offset)
}

func (r *PostgresBorrowerRepository) Search(ctx context.Context, nameQuery string, limit, offset int) ([]model.Borrower, error) {
	const q = `
		SELECT id, document_id, name, ssn_hash, address, confidence_score, created_at
		FROM borrowers WHERE name ILIKE '%' || $1 || '%' ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.queryList(ctx, q, nameQuery, limit, offset)
}

func (r *PostgresBorrowerRepository) SearchByAccountNumber(ctx context.Context, accountNumber string, limit, offset int) ([]model.Borrower, error) {
	const q = `
		SELECT DISTINCT b.id, b.document_id, b.name, b.ssn_hash, b.address, b.confidence_score, b.created_at
		FROM borrowers b
		JOIN account_numbers a ON a.borrower_id = b.id
		WHERE a.number = $1
		ORDER BY b.created_at DESC LIMIT $2 OFFSET $3`
	return r.queryList(ctx, q, accountNumber, limit, offset)
}

func (r *PostgresBorrowerRepository) queryList(ctx context.Context, q string, args ...any) ([]model.Borrower, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, &model.StorageError{Op: "list borrowers", Cause: err}
	}
	defer rows.Close()

	var borrowers []model.Borrower
	ptrs := make([]*model.Borrower, 0)
	for rows.Next() {
		var b model.Borrower
		if err := rows.Scan(&b.ID, &b.DocumentID, &b.Name, &b.SSNHash, &b.Address, &b.ConfidenceScore, &b.CreatedAt); err != nil {
			return nil, &model.StorageError{Op: "scan borrower row", Cause: err}
		}
		borrowers = append(borrowers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StorageError{Op: "iterate borrowers", Cause: err}
	}

	for i := range borrowers {
		ptrs = append(ptrs, &borrowers[i])
	}
	if err := r.attachChildren(ctx, ptrs); err != nil {
		return nil, err
	}
	return borrowers, nil
}

// attachChildren batch-loads income records, account numbers, and source
// references for a set of borrowers in three round trips total, rather than
// one query per borrower per child type.
func (r *PostgresBorrowerRepository) attachChildren(ctx context.Context, borrowers []*model.Borrower) error {
	if len(borrowers) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(borrowers))
	byID := make(map[uuid.UUID]*model.Borrower, len(borrowers))
	for i, b := range borrowers {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	incomeRows, err := r.pool.Query(ctx, `
		SELECT borrower_id, amount, period, year, source_type, employer
		FROM income_records WHERE borrower_id = ANY($1)`, ids)
	if err != nil {
		return &model.StorageError{Op: "list income records", Cause: err}
	}
	for incomeRows.Next() {
		var borrowerID uuid.UUID
		var inc model.IncomeRecord
		if err := incomeRows.Scan(&borrowerID, &inc.Amount, &inc.Period, &inc.Year, &inc.SourceType, &inc.Employer); err != nil {
			incomeRows.Close()
			return &model.StorageError{Op: "scan income record", Cause: err}
		}
		byID[borrowerID].IncomeRecords = append(byID[borrowerID].IncomeRecords, inc)
	}
	incomeRows.Close()
	if err := incomeRows.Err(); err != nil {
		return &model.StorageError{Op: "iterate income records", Cause: err}
	}

	accountRows, err := r.pool.Query(ctx, `
		SELECT borrower_id, number, type FROM account_numbers WHERE borrower_id = ANY($1)`, ids)
	if err != nil {
		return &model.StorageError{Op: "list account numbers", Cause: err}
	}
	for accountRows.Next() {
		var borrowerID uuid.UUID
		var acc model.AccountNumber
		if err := accountRows.Scan(&borrowerID, &acc.Number, &acc.Type); err != nil {
			accountRows.Close()
			return &model.StorageError{Op: "scan account number", Cause: err}
		}
		byID[borrowerID].AccountNumbers = append(byID[borrowerID].AccountNumbers, acc)
	}
	accountRows.Close()
	if err := accountRows.Err(); err != nil {
		return &model.StorageError{Op: "iterate account numbers", Cause: err}
	}

	sourceRows, err := r.pool.Query(ctx, `
		SELECT borrower_id, document_id, page, section, snippet, char_start, char_end
		FROM source_references WHERE borrower_id = ANY($1)`, ids)
	if err != nil {
		return &model.StorageError{Op: "list source references", Cause: err}
	}
	for sourceRows.Next() {
		var borrowerID uuid.UUID
		var src model.SourceReference
		if err := sourceRows.Scan(&borrowerID, &src.DocumentID, &src.Page, &src.Section, &src.Snippet, &src.CharStart, &src.CharEnd); err != nil {
			sourceRows.Close()
			return &model.StorageError{Op: "scan source reference", Cause: err}
		}
		byID[borrowerID].Sources = append(byID[borrowerID].Sources, src)
	}
	sourceRows.Close()
	if err := sourceRows.Err(); err != nil {
		return &model.StorageError{Op: "iterate source references", Cause: err}
	}

	return nil
}
