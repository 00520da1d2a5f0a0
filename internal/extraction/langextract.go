package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/rezonia/docingest/internal/chunker"
	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/offsets"
)

// LangExtractStrategy is the character-offset extraction strategy. It works
// over a markdown-normalized rendition of the document text so the LLM sees
// cleaner input, then translates every extraction_text span the model
// returns back onto raw_text offsets through the offset translator.
type LangExtractStrategy struct {
	client *llm.Client
}

func NewLangExtractStrategy(client *llm.Client) *LangExtractStrategy {
	return &LangExtractStrategy{client: client}
}

// blankRunRe collapses runs of 3+ newlines down to a paragraph break. This
// and the trailing-whitespace trim in normalizeMarkdown are the only
// normalization steps distinguishing raw_text from markdown_text in this
// pipeline.
var blankRunRe = regexp.MustCompile(`\n{3,}`)

func normalizeMarkdown(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

// Extract runs the character-offset strategy once over rawText. pageCount is
// used to estimate a page number for every source; sources whose span is
// translated back onto raw_text and verified also carry char offsets.
func (s *LangExtractStrategy) Extract(ctx context.Context, documentID uuid.UUID, rawText string, pageCount int, complexity model.ComplexityAssessment, opts chunker.Options) (model.ExtractionResult, error) {
	markdown := normalizeMarkdown(rawText)
	translator := offsets.New(rawText, markdown)

	chunks := chunker.Chunk(markdown, opts)
	modelName := modelForComplexity(complexity.Level)

	var raw []model.BorrowerRecord
	tokensUsed := 0

	for _, chunk := range chunks {
		page := estimatePage(chunk.StartChar, len(markdown), pageCount)
		section := fmt.Sprintf("chunk %d/%d", chunk.Index+1, chunk.Total)

		req := llm.ExtractRequest{
			Model:        modelName,
			SystemPrompt: systemPrompt,
			UserPrompt:   langExtractUserPrompt(chunk.Text, section),
			SchemaName:   "borrower_extraction_langextract",
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
			rec.Sources = langExtractSources(documentID, page, translator, chunk, lb)
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
		MethodUsed:          model.MethodLangExtract,
	}, nil
}

func langExtractSources(documentID uuid.UUID, page int, translator *offsets.Translator, chunk model.Chunk, lb llmBorrower) []model.SourceReference {
	var out []model.SourceReference

	addSpan := func(section, snippet, extractionText string) {
		if extractionText == "" {
			out = append(out, model.SourceReference{DocumentID: documentID, Page: page, Section: section, Snippet: snippet})
			return
		}

		localStart, localEnd, found := locateSpan(chunk.Text, extractionText)
		if !found {
			out = append(out, model.SourceReference{DocumentID: documentID, Page: page, Section: section, Snippet: snippet})
			return
		}

		mdStart := chunk.StartChar + localStart
		mdEnd := chunk.StartChar + localEnd
		rawStart := translator.ToRaw(mdStart)
		rawEnd := translator.ToRaw(mdEnd)

		if rawEnd <= rawStart || !offsets.VerifyTranslation(extractionText, translator.RawText(), rawStart, rawEnd) {
			out = append(out, model.SourceReference{DocumentID: documentID, Page: page, Section: section, Snippet: snippet})
			return
		}

		cs, ce := rawStart, rawEnd
		out = append(out, model.SourceReference{
			DocumentID: documentID,
			Page:       page,
			Section:    section,
			Snippet:    snippet,
			CharStart:  &cs,
			CharEnd:    &ce,
		})
	}

	if len(lb.Sources) == 0 {
		out = append(out, model.SourceReference{DocumentID: documentID, Page: page, Section: "unspecified"})
	}
	for _, src := range lb.Sources {
		section := src.Section
		if section == "" {
			section = "body"
		}
		addSpan(section, src.Snippet, src.ExtractionText)
	}
	for _, inc := range lb.IncomeHistory {
		addSpan("income_history", inc.Employer, inc.ExtractionText)
	}
	for _, acc := range lb.AccountNumbers {
		addSpan("account_numbers", acc.Number, acc.ExtractionText)
	}

	return out
}

// locateSpan finds needle's first occurrence in haystack, returning
// character offsets relative to haystack.
func locateSpan(haystack, needle string) (start, end int, found bool) {
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(needle), true
}
