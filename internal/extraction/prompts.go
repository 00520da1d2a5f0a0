package extraction

import (
	"fmt"

	"github.com/rezonia/docingest/internal/llm"
	"github.com/rezonia/docingest/internal/model"
)

const systemPrompt = `You extract borrower records from loan documents: pay stubs,
bank statements, tax returns, loan applications, and similar financial
paperwork. Extract every distinct borrower you can identify. For each
borrower, return their name, SSN, phone, address, income history (one
entry per distinct year/source), account numbers, and a source reference
for every field you populate. Leave a field empty rather than guessing.
Never invent a value that is not present in the text.`

const langExtractAddendum = `For every field and every income/account entry you
populate, also return extraction_text: the exact, verbatim substring of
the provided text that the value was extracted from, character-for-
character, including original spacing and punctuation. Do not
paraphrase or normalize extraction_text.`

func doclingUserPrompt(chunk, section string) string {
	return fmt.Sprintf("Document section: %s\n\n%s", section, chunk)
}

func langExtractUserPrompt(chunk, section string) string {
	return fmt.Sprintf("%s\n\nDocument section: %s\n\n%s", langExtractAddendum, section, chunk)
}

func modelForComplexity(level model.ComplexityLevel) string {
	if level == model.ComplexityComplex {
		return llm.ModelProClass
	}
	return llm.ModelFlashClass
}
