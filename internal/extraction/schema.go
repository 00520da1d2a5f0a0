package extraction

// borrowerSchema is the JSON schema every chunk-level LLM call is
// constrained to. extraction_text is populated only by the langextract
// prompt variant; docling prompts simply leave it empty.
var borrowerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"borrowers": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":  map[string]any{"type": "string"},
					"ssn":   map[string]any{"type": "string"},
					"phone": map[string]any{"type": "string"},
					"address": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"street": map[string]any{"type": "string"},
							"city":   map[string]any{"type": "string"},
							"state":  map[string]any{"type": "string"},
							"zip":    map[string]any{"type": "string"},
						},
					},
					"income_history": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"amount":      map[string]any{"type": "string"},
								"period":      map[string]any{"type": "string"},
								"year":        map[string]any{"type": "integer"},
								"source_type": map[string]any{"type": "string"},
								"employer":    map[string]any{"type": "string"},
								"extraction_text": map[string]any{"type": "string"},
							},
						},
					},
					"account_numbers": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"number":          map[string]any{"type": "string"},
								"type":            map[string]any{"type": "string"},
								"extraction_text": map[string]any{"type": "string"},
							},
						},
					},
					"sources": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"section":         map[string]any{"type": "string"},
								"snippet":         map[string]any{"type": "string"},
								"extraction_text": map[string]any{"type": "string"},
							},
						},
					},
				},
				"required": []string{"name"},
			},
		},
	},
	"required": []string{"borrowers"},
}

type llmAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type llmIncome struct {
	Amount         string `json:"amount"`
	Period         string `json:"period"`
	Year           int    `json:"year"`
	SourceType     string `json:"source_type"`
	Employer       string `json:"employer"`
	ExtractionText string `json:"extraction_text,omitempty"`
}

type llmAccount struct {
	Number         string `json:"number"`
	Type           string `json:"type"`
	ExtractionText string `json:"extraction_text,omitempty"`
}

type llmSource struct {
	Section        string `json:"section"`
	Snippet        string `json:"snippet"`
	ExtractionText string `json:"extraction_text,omitempty"`
}

type llmBorrower struct {
	Name           string       `json:"name"`
	SSN            string       `json:"ssn"`
	Phone          string       `json:"phone"`
	Address        *llmAddress  `json:"address"`
	IncomeHistory  []llmIncome  `json:"income_history"`
	AccountNumbers []llmAccount `json:"account_numbers"`
	Sources        []llmSource  `json:"sources"`
}

type llmExtractionPayload struct {
	Borrowers []llmBorrower `json:"borrowers"`
}
