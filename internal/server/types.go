package server

import "github.com/google/uuid"

// uploadQuery binds the query-string parameters on the upload endpoint.
type uploadQuery struct {
	Method string `form:"method" binding:"omitempty,oneof=docling langextract auto"`
	OCR    string `form:"ocr" binding:"omitempty,oneof=auto force skip"`
}

// paginationQuery binds limit/offset shared by every list endpoint.
type paginationQuery struct {
	Limit  int `form:"limit,default=50" binding:"gte=0,lte=500"`
	Offset int `form:"offset,default=0" binding:"gte=0"`
}

// searchQuery binds the borrower search endpoint's parameters.
type searchQuery struct {
	Name          string `form:"name"`
	AccountNumber string `form:"account_number"`
	Limit         int    `form:"limit,default=50" binding:"gte=0,lte=500"`
	Offset        int    `form:"offset,default=0" binding:"gte=0"`
}

// documentResponse is the shape returned by upload and by single-document
// retrieval.
type documentResponse struct {
	ID               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`
	FileHash         string    `json:"file_hash"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	Status           string    `json:"status"`
	PageCount        *int      `json:"page_count,omitempty"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	ExtractionMethod *string   `json:"extraction_method,omitempty"`
	OCRProcessed     *bool     `json:"ocr_processed,omitempty"`
	Message          string    `json:"message,omitempty"`
}

// statusResponse is the shape returned by the status-polling endpoint.
type statusResponse struct {
	ID           uuid.UUID `json:"id"`
	Status       string    `json:"status"`
	PageCount    *int      `json:"page_count,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}

type incomeRecordResponse struct {
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	Year       int    `json:"year"`
	SourceType string `json:"source_type"`
	Employer   string `json:"employer,omitempty"`
}

type accountNumberResponse struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type sourceReferenceResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	Page       int       `json:"page"`
	Section    string    `json:"section,omitempty"`
	Snippet    string    `json:"snippet"`
	CharStart  *int      `json:"char_start,omitempty"`
	CharEnd    *int      `json:"char_end,omitempty"`
}

// borrowerResponse is the shape returned by single-borrower retrieval and
// by list/search endpoints.
type borrowerResponse struct {
	ID              uuid.UUID                 `json:"id"`
	DocumentID      uuid.UUID                 `json:"document_id"`
	Name            string                    `json:"name"`
	SSNHash         *string                   `json:"ssn_hash,omitempty"`
	Address         *string                   `json:"address,omitempty"`
	ConfidenceScore float64                   `json:"confidence_score"`
	IncomeRecords   []incomeRecordResponse    `json:"income_records,omitempty"`
	AccountNumbers  []accountNumberResponse   `json:"account_numbers,omitempty"`
	Sources         []sourceReferenceResponse `json:"sources,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// taskRequest is the JSON body the task queue handler endpoint accepts.
type taskRequest struct {
	DocumentID uuid.UUID `json:"document_id" binding:"required"`
	Filename   string    `json:"filename" binding:"required"`
	Method     string    `json:"method" binding:"required,oneof=docling langextract auto"`
	OCR        string    `json:"ocr" binding:"required,oneof=auto force skip"`
}
