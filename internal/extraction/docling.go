package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rezonia/docingest/internal/chunker"
	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/model"
)

// DoclingStrategy is the page-level extraction strategy:
// it chunks the OCR'd/parsed text and asks the LLM for borrowers per chunk,
// attaching a page estimate (not a character offset) to every source.
type DoclingStrategy struct {
	client *llm.Client
}

func NewDoclingStrategy(client *llm.Client) *DoclingStrategy {
	return &DoclingStrategy{client: client}
}

// Extract runs the page-level strategy once over text. A per-chunk LLM
// failure fails the whole extraction; there is no cross-chunk recovery.
func (s *DoclingStrategy) Extract(ctx context.Context, documentID uuid.UUID, text string, pageCount int, complexity model.ComplexityAssessment, opts chunker.Options) (model.ExtractionResult, error) {
	chunks := chunker.Chunk(text, opts)
	modelName := modelForComplexity(complexity.Level)

	var raw []model.BorrowerRecord
	tokensUsed := 0

	for _, chunk := range chunks {
		page := estimatePage(chunk.StartChar, len(text), pageCount)
		section := fmt.Sprintf("page ~%d", page)

		req := llm.ExtractRequest{
			Model:        modelName,
			SystemPrompt: systemPrompt,
			UserPrompt:   doclingUserPrompt(chunk.Text, section),
			SchemaName:   "borrower_extraction",
			Schema:       borrowerSchema,
		}

		resp, err := s.client.ExtractWithRetry(ctx, req)
		if err != nil {
			return model.ExtractionResult{}, err
		}
		tokensUsed += int(resp.Usage.TotalTokens)

		var payload llmExtractionPayload
		if err := json.Unmarshal(resp.RawJSON, &payload); err != nil {
			return model.ExtractionResult{}, &model.LLMFatalError{Message: fmt.Sprintf("chunk %d: malformed extraction payload", chunk.Index), Cause: err}
		}

		for _, lb := range payload.Borrowers {
			rec := recordFromLLM(lb)
			rec.Sources = doclingSources(documentID, page, lb)
			raw = append(raw, rec)
		}
	}

	final, validationErrors, warnings := finalizeBorrowers(raw)

	return model.ExtractionResult{
		Borrowers:           final,
		ChunksProcessed:     len(chunks),
		TokensUsed:          tokensUsed,
		ValidationErrors:    validationErrors,
		ConsistencyWarnings: warnings,
		MethodUsed:          model.MethodDocling,
	}, nil
}

func doclingSources(documentID uuid.UUID, page int, lb llmBorrower) []model.SourceReference {
	if len(lb.Sources) == 0 {
		return []model.SourceReference{{DocumentID: documentID, Page: page, Section: "unspecified", Snippet: ""}}
	}
	out := make([]model.SourceReference, 0, len(lb.Sources))
	for _, src := range lb.Sources {
		out = append(out, model.SourceReference{
			DocumentID: documentID,
			Page:       page,
			Section:    src.Section,
			Snippet:    src.Snippet,
		})
	}
	return out
}

// estimatePage maps a character offset onto a page number by linear
// interpolation over the document's total length; the page-level strategy
// has no true page boundaries to work from once text has been flattened.
func estimatePage(offset, textLen, pageCount int) int {
	if pageCount <= 1 || textLen <= 0 {
		return 1
	}
	page := (offset*pageCount)/textLen + 1
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	return page
}
