package ocr

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/rezonia/docingest/internal/metrics"
	"github.com/rezonia/docingest/internal/model"
)

// OCRMethod tags which path actually produced the text body.
type OCRMethod string

const (
	OCRMethodNone           OCRMethod = "none"
	OCRMethodGPU            OCRMethod = "gpu"
	OCRMethodParserFallback OCRMethod = "parser_fallback"
)

// breakerCooldown is the time the breaker stays OPEN before allowing a
// single HALF_OPEN probe.
const breakerCooldown = 30 * time.Second

// Router decides whether to OCR a document, routes GPU calls through a
// process-wide circuit breaker, and falls back to the in-process parser on
// GPU failure or an open breaker.
type Router struct {
	client  *Client
	parser  *Parser
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	log     zerolog.Logger
	detect  func(text string, pageCount int) bool
}

// Output is the normalized result handed to the Extraction Router.
type Output struct {
	Text      string
	PageCount int
	Method    OCRMethod
}

func NewRouter(client *Client, parser *Parser, m *metrics.Metrics, log zerolog.Logger) *Router {
	r := &Router{client: client, parser: parser, metrics: m, log: log, detect: IsScanned}

	settings := gobreaker.Settings{
		Name:        "ocr-gpu",
		MaxRequests: 1, // single HALF_OPEN probe
		Interval:    0, // never reset CLOSED counts on a timer; only on trip
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ocr circuit breaker state change")
			if m != nil {
				m.BreakerStateChanges.WithLabelValues(from.String(), to.String()).Inc()
			}
		},
	}
	r.breaker = gobreaker.NewCircuitBreaker(settings)
	return r
}

// Route runs the OCR decision policy.
func (r *Router) Route(ctx context.Context, data []byte, filename string, mode model.OCRMode) (Output, error) {
	switch mode {
	case model.OCRModeSkip:
		return r.runParser(data)

	case model.OCRModeForce:
		return r.runGPUWithFallback(ctx, data, filename)

	case model.OCRModeAuto:
		parsed, pageCount, err := r.parser.ParsePDF(data)
		if err != nil {
			return Output{}, err
		}
		if r.detect(parsed, pageCount) {
			return r.runGPUWithFallback(ctx, data, filename)
		}
		return Output{Text: parsed, PageCount: pageCount, Method: OCRMethodNone}, nil

	default:
		return Output{}, model.NewValidationError("ocr_mode", "unrecognized OCR mode")
	}
}

func (r *Router) runParser(data []byte) (Output, error) {
	text, pageCount, err := r.parser.ParsePDF(data)
	if err != nil {
		return Output{}, err
	}
	return Output{Text: text, PageCount: pageCount, Method: OCRMethodNone}, nil
}

// runGPUWithFallback calls the GPU client through the circuit breaker and
// falls back to the in-process parser (tagged parser_fallback) on any GPU
// error, timeout, or an already-open breaker.
func (r *Router) runGPUWithFallback(ctx context.Context, data []byte, filename string) (Output, error) {
	if r.client == nil {
		text, pageCount, err := r.parser.ParsePDF(data)
		if err != nil {
			return Output{}, err
		}
		if r.metrics != nil {
			r.metrics.OCRMethodUsed.WithLabelValues(string(OCRMethodParserFallback)).Inc()
		}
		return Output{Text: text, PageCount: pageCount, Method: OCRMethodParserFallback}, nil
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Recognize(ctx, data, filename)
	})

	if err == nil {
		res := result.(Result)
		if r.metrics != nil {
			r.metrics.OCRMethodUsed.WithLabelValues(string(OCRMethodGPU)).Inc()
		}
		return Output{Text: res.Text, PageCount: res.PageCount, Method: OCRMethodGPU}, nil
	}

	r.log.Warn().Err(err).Msg("gpu ocr call failed, falling back to in-process parser")

	text, pageCount, parseErr := r.parser.ParsePDF(data)
	if parseErr != nil {
		return Output{}, parseErr
	}
	if r.metrics != nil {
		r.metrics.OCRMethodUsed.WithLabelValues(string(OCRMethodParserFallback)).Inc()
	}
	return Output{Text: text, PageCount: pageCount, Method: OCRMethodParserFallback}, nil
}
