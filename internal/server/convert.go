package server

import "github.com/rezonia/docingest/internal/model"

func toDocumentResponse(doc *model.Document) documentResponse {
	return documentResponse{
		ID:               doc.ID,
		Filename:         doc.Filename,
		FileHash:         doc.ContentHash,
		FileSizeBytes:    doc.FileSizeBytes,
		Status:           string(doc.Status),
		PageCount:        doc.PageCount,
		ErrorMessage:     doc.ErrorMessage,
		ExtractionMethod: doc.ExtractionMethod,
		OCRProcessed:     doc.OCRProcessed,
	}
}

func toBorrowerResponse(b *model.Borrower) borrowerResponse {
	return borrowerResponse{
		ID:              b.ID,
		DocumentID:      b.DocumentID,
		Name:            b.Name,
		SSNHash:         b.SSNHash,
		Address:         b.Address,
		ConfidenceScore: b.ConfidenceScore,
		IncomeRecords:   toIncomeResponses(b.IncomeRecords),
		AccountNumbers:  toAccountResponses(b.AccountNumbers),
		Sources:         toSourceResponses(b.Sources),
	}
}

func toBorrowerResponses(borrowers []model.Borrower) []borrowerResponse {
	out := make([]borrowerResponse, len(borrowers))
	for i := range borrowers {
		out[i] = toBorrowerResponse(&borrowers[i])
	}
	return out
}

func toIncomeResponses(records []model.IncomeRecord) []incomeRecordResponse {
	if len(records) == 0 {
		return nil
	}
	out := make([]incomeRecordResponse, len(records))
	for i, r := range records {
		out[i] = incomeRecordResponse{
			Amount:     r.Amount.String(),
			Period:     string(r.Period),
			Year:       r.Year,
			SourceType: r.SourceType,
			Employer:   r.Employer,
		}
	}
	return out
}

func toAccountResponses(accounts []model.AccountNumber) []accountNumberResponse {
	if len(accounts) == 0 {
		return nil
	}
	out := make([]accountNumberResponse, len(accounts))
	for i, a := range accounts {
		out[i] = accountNumberResponse{Number: a.Number, Type: string(a.Type)}
	}
	return out
}

func toSourceResponses(sources []model.SourceReference) []sourceReferenceResponse {
	if len(sources) == 0 {
		return nil
	}
	out := make([]sourceReferenceResponse, len(sources))
	for i, src := range sources {
		out[i] = sourceReferenceResponse{
			DocumentID: src.DocumentID,
			Page:       src.Page,
			Section:    src.Section,
			Snippet:    src.Snippet,
			CharStart:  src.CharStart,
			CharEnd:    src.CharEnd,
		}
	}
	return out
}
