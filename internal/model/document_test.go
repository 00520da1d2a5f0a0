package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/model"
)

func TestParseExtractionMethod_AcceptsKnownValues(t *testing.T) {
	for _, v := range []string{"docling", "langextract", "auto"} {
		got, err := model.ParseExtractionMethod(v)
		require.NoError(t, err)
		assert.Equal(t, model.ExtractionMethod(v), got)
	}
}

func TestParseExtractionMethod_RejectsUnknownValue(t *testing.T) {
	_, err := model.ParseExtractionMethod("bogus")
	require.Error(t, err)
	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestParseOCRMode_AcceptsKnownValues(t *testing.T) {
	for _, v := range []string{"auto", "force", "skip"} {
		got, err := model.ParseOCRMode(v)
		require.NoError(t, err)
		assert.Equal(t, model.OCRMode(v), got)
	}
}

func TestParseOCRMode_RejectsUnknownValue(t *testing.T) {
	_, err := model.ParseOCRMode("bogus")
	require.Error(t, err)
	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestDocument_IsTerminal(t *testing.T) {
	cases := []struct {
		status   model.DocumentStatus
		terminal bool
	}{
		{model.DocumentPending, false},
		{model.DocumentProcessing, false},
		{model.DocumentCompleted, true},
		{model.DocumentFailed, true},
	}

	for _, c := range cases {
		d := model.Document{Status: c.status}
		assert.Equal(t, c.terminal, d.IsTerminal(), "status %s", c.status)
	}
}
