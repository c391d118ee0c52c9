// Package llm - extractor.go turns raw resume text into structured attributes
// plus an embedding vector.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResumeExtraction is the structured output of the embedding extractor.
type ResumeExtraction struct {
	Skills     []string  `json:"skills"`
	JobTitles  []string  `json:"job_titles"`
	Industries []string  `json:"industries"`
	Education  []string  `json:"education"`
	Vector     []float32 `json:"-"`
}

// resumeExtractionSchema validates the model's JSON before it is accepted.
// Anything that fails here is treated as retryable extractor failure.
const resumeExtractionSchema = `{
  "type": "object",
  "required": ["skills", "job_titles", "industries", "education"],
  "properties": {
    "skills":     {"type": "array", "items": {"type": "string"}},
    "job_titles": {"type": "array", "items": {"type": "string"}},
    "industries": {"type": "array", "items": {"type": "string"}},
    "education":  {"type": "array", "items": {"type": "string"}}
  }
}`

// Extractor converts resume text into a ResumeExtraction using an LLM client.
type Extractor struct {
	client Client
}

// NewExtractor creates an Extractor backed by the given client.
func NewExtractor(client Client) *Extractor {
	return &Extractor{client: client}
}

// ExtractResume extracts structured attributes and an embedding vector from
// raw resume text. Malformed or empty extractor output surfaces as
// *ExtractionError so the caller can decide whether to retry.
func (e *Extractor) ExtractResume(ctx context.Context, resumeText string) (*ResumeExtraction, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, &ExtractionError{Reason: "resume text is empty"}
	}

	raw, err := e.client.GenerateJSON(ctx, buildResumePrompt(resumeText))
	if err != nil {
		return nil, &ExtractionError{Reason: "extractor call failed", Cause: err}
	}

	if err := validateExtraction(raw); err != nil {
		return nil, err
	}

	var extraction ResumeExtraction
	if err := json.Unmarshal([]byte(raw), &extraction); err != nil {
		return nil, &ExtractionError{Reason: "extractor returned invalid JSON", Cause: err}
	}

	if len(extraction.Skills) == 0 && len(extraction.JobTitles) == 0 {
		return nil, &ExtractionError{Reason: "extractor returned no skills or job titles"}
	}

	vector, err := e.client.EmbedText(ctx, resumeText)
	if err != nil {
		return nil, &ExtractionError{Reason: "embedding call failed", Cause: err}
	}
	extraction.Vector = vector

	return &extraction, nil
}

// validateExtraction checks the raw JSON against the extraction schema.
func validateExtraction(raw string) error {
	schemaLoader := gojsonschema.NewStringLoader(resumeExtractionSchema)
	docLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return &ExtractionError{Reason: "extractor returned invalid JSON", Cause: err}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return &ExtractionError{Reason: "extractor output failed schema validation: " + strings.Join(problems, "; ")}
	}
	return nil
}

// buildResumePrompt constructs the extraction prompt for a resume.
func buildResumePrompt(resumeText string) string {
	var sb strings.Builder

	sb.WriteString(`You are an expert resume parser. Extract structured attributes from the resume below.
Goal: skills, job titles held, industries worked in, and education entries.
COPY TEXT VERBATIM where possible - do not invent attributes that are not in the resume.

Return ONLY valid JSON matching this exact structure:
{
  "skills": ["string"],      // concrete skills, tools, certifications, languages
  "job_titles": ["string"],  // titles the candidate has held
  "industries": ["string"],  // industries the candidate has worked in
  "education": ["string"]    // degrees, schools, training programs
}

IMPORTANT:
- Return ONLY the JSON object, no markdown, no explanation, no code blocks.
- Use empty arrays for sections the resume does not cover.

Resume text:
"""
`)
	sb.WriteString(resumeText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}
