package extraction

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/model"
)

func newRouterTo(t *testing.T, handler http.HandlerFunc) *Router {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := llm.NewClient("test-key", llm.WithBaseURL(srv.URL))
	return NewRouter(client, zerolog.Nop())
}

func successBody() string {
	return `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"borrowers\":[{\"name\":\"Jane Doe\"}]}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`
}

func TestRouter_Extract_DoclingMethodSucceeds(t *testing.T) {
	router := newRouterTo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, successBody())
	})

	result, err := router.Extract(context.Background(), uuid.New(), "document body", 2, model.ComplexityAssessment{Level: model.ComplexityStandard}, model.MethodDocling)

	require.NoError(t, err)
	assert.Equal(t, model.MethodDocling, result.MethodUsed)
}

func TestRouter_Extract_AutoFallsBackToDoclingWhenLangExtractFails(t *testing.T) {
	var calls int32
	router := newRouterTo(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			// langextract's single attempt fails fatally; auto must not
			// retry the whole strategy, just fall back to docling once.
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
			return
		}
		fmt.Fprint(w, successBody())
	})

	result, err := router.Extract(context.Background(), uuid.New(), "document body", 2, model.ComplexityAssessment{Level: model.ComplexityStandard}, model.MethodAuto)

	require.NoError(t, err)
	assert.Equal(t, model.MethodDocling, result.MethodUsed, "auto falls back to the page-level strategy after langextract fails")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "one failed langextract attempt plus one docling attempt")
}

func TestRouter_Extract_LangExtractMethodDoesNotFallBackOnFailure(t *testing.T) {
	router := newRouterTo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
	})

	_, err := router.Extract(context.Background(), uuid.New(), "document body", 2, model.ComplexityAssessment{Level: model.ComplexityStandard}, model.MethodLangExtract)

	require.Error(t, err, "explicit langextract method must surface the failure rather than silently falling back")
}

func TestRouter_Extract_LangExtractRetriesOnTransientFailureThenSucceeds(t *testing.T) {
	var calls int32
	router := newRouterTo(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"503 service unavailable"}}`)
			return
		}
		fmt.Fprint(w, successBody())
	})

	result, err := router.Extract(context.Background(), uuid.New(), "document body", 1, model.ComplexityAssessment{Level: model.ComplexityStandard}, model.MethodLangExtract)

	require.NoError(t, err)
	assert.Equal(t, model.MethodLangExtract, result.MethodUsed)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2), "a transient failure must be retried rather than surfaced immediately")
}

func TestRouter_Extract_UnrecognizedMethodIsValidationError(t *testing.T) {
	router := newRouterTo(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := router.Extract(context.Background(), uuid.New(), "document body", 1, model.ComplexityAssessment{Level: model.ComplexityStandard}, model.ExtractionMethod("bogus"))

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}
