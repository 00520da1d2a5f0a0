// Package extraction implements the two extraction strategies and the
// router that picks between them.
package extraction

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rezonia/docingest/internal/chunker"
	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/model"
	"github.com/rezonia/docingest/internal/retry"
)

// Router dispatches an extraction call to the page-level or character-offset
// strategy according to the requested method, applying the retry/fallback
// policy.
type Router struct {
	docling     *DoclingStrategy
	langextract *LangExtractStrategy
	chunkOpts   chunker.Options
	log         zerolog.Logger
}

func NewRouter(client *llm.Client, log zerolog.Logger) *Router {
	return &Router{
		docling:     NewDoclingStrategy(client),
		langextract: NewLangExtractStrategy(client),
		chunkOpts:   chunker.DefaultOptions(),
		log:         log,
	}
}

// Extract dispatches per the requested method's retry/fallback policy:
//
//   - docling: call the page-level strategy once. No fallback.
//   - langextract: call the character-offset strategy, retrying the whole
//     strategy call up to 3 attempts on a transient error. No fallback to
//     docling.
//   - auto: same retried character-offset attempt; on a transient error that
//     survives all 3 attempts, or on an immediate fatal error, fall back to
//     the page-level strategy exactly once.
func (r *Router) Extract(ctx context.Context, documentID uuid.UUID, rawText string, pageCount int, complexity model.ComplexityAssessment, method model.ExtractionMethod) (model.ExtractionResult, error) {
	switch method {
	case model.MethodDocling:
		return r.docling.Extract(ctx, documentID, rawText, pageCount, complexity, r.chunkOpts)

	case model.MethodLangExtract:
		return r.runLangExtractWithRetry(ctx, documentID, rawText, pageCount, complexity)

	case model.MethodAuto:
		result, err := r.runLangExtractWithRetry(ctx, documentID, rawText, pageCount, complexity)
		if err == nil {
			return result, nil
		}
		r.log.Warn().Err(err).Str("document_id", documentID.String()).Msg("langextract exhausted, falling back to docling")
		return r.docling.Extract(ctx, documentID, rawText, pageCount, complexity, r.chunkOpts)

	default:
		return model.ExtractionResult{}, model.NewValidationError("method", "unrecognized extraction method")
	}
}

func (r *Router) runLangExtractWithRetry(ctx context.Context, documentID uuid.UUID, rawText string, pageCount int, complexity model.ComplexityAssessment) (model.ExtractionResult, error) {
	cfg := retry.DefaultConfig(model.IsTransientError)

	var result model.ExtractionResult
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		var err error
		result, err = r.langextract.Extract(ctx, documentID, rawText, pageCount, complexity, r.chunkOpts)
		return err
	})
	if err != nil {
		return model.ExtractionResult{}, err
	}
	return result, nil
}
