package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/docingest/internal/model"
)

func TestIsTransientMessage_MatchesKnownMarkersCaseInsensitively(t *testing.T) {
	for _, msg := range []string{"Rate Limit exceeded", "request TIMEOUT", "503 unavailable", "429 too many requests", "resource exhausted"} {
		assert.Truef(t, model.IsTransientMessage(msg), "expected %q to be transient", msg)
	}
}

func TestIsTransientMessage_RejectsUnmatchedOrBlankMessages(t *testing.T) {
	assert.False(t, model.IsTransientMessage("invalid api key"))
	assert.False(t, model.IsTransientMessage(""))
	assert.False(t, model.IsTransientMessage("   "))
}

func TestIsTransientError_MatchesTaggedLLMAndOCRErrors(t *testing.T) {
	assert.True(t, model.IsTransientError(&model.LLMTransientError{Message: "rate limit"}))
	assert.True(t, model.IsTransientError(&model.OCRTransientError{Message: "timeout"}))
	assert.False(t, model.IsTransientError(&model.LLMFatalError{Message: "bad schema"}))
	assert.False(t, model.IsTransientError(errors.New("plain error")))
}

func TestLLMTransientError_UnwrapsToCause(t *testing.T) {
	cause := errors.New("underlying")
	err := &model.LLMTransientError{Message: "wrapped", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "wrapped")
	assert.Contains(t, err.Error(), "underlying")
}

func TestTerminalFailureError_IsTerminalButNotTransient(t *testing.T) {
	wrapped := &model.TerminalFailureError{Cause: &model.LLMTransientError{Message: "rate limit"}}

	assert.True(t, model.IsTerminalFailure(wrapped))
	assert.False(t, model.IsTransientError(wrapped), "a terminal failure must not look retryable even when its cause was transient")
	assert.False(t, model.IsTerminalFailure(&model.LLMTransientError{Message: "rate limit"}))
	assert.Contains(t, wrapped.Error(), "rate limit")
}

func TestValidationError_FormatsFieldAndMessage(t *testing.T) {
	err := model.NewValidationError("ssn", "must be 9 digits")
	assert.Equal(t, "validation failed on ssn: must be 9 digits", err.Error())
}
