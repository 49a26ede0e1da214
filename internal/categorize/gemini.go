package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCategorizer asks a Gemini model to classify payees.
type GeminiCategorizer struct {
	models contentGenerator
	model  string
}

// NewGeminiCategorizer creates a categorizer. Credentials are taken from the
// environment (GOOGLE_API_KEY or the Vertex AI variables).
func NewGeminiCategorizer(ctx context.Context, model string) (*GeminiCategorizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCategorizer: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiCategorizer{models: client.Models, model: model}, nil
}

// Suggest implements Categorizer.
func (g *GeminiCategorizer) Suggest(ctx context.Context, payees []string, known []string) (map[string]string, error) {
	if len(payees) == 0 {
		return map[string]string{}, nil
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(payees, known)}},
		},
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Suggest: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Suggest: empty response from model")
	}

	var parsed map[string]string
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("Suggest: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	// Drop anything the model invented.
	asked := make(map[string]bool, len(payees))
	for _, p := range payees {
		asked[p] = true
	}
	for payee := range parsed {
		if !asked[payee] {
			delete(parsed, payee)
		}
	}

	return parsed, nil
}

func buildPrompt(payees []string, known []string) string {
	var b strings.Builder

	b.WriteString("You categorize personal bank transactions by payee.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Assign one short spending category to each payee below.\n")
	if len(known) > 0 {
		b.WriteString("- Prefer these existing categories when one fits:\n")
		for _, c := range known {
			b.WriteString("  - " + c + "\n")
		}
	}
	b.WriteString("- If a payee cannot be classified, leave it out.\n\n")
	b.WriteString("Payees:\n")
	for _, p := range payees {
		b.WriteString("- " + p + "\n")
	}
	b.WriteString("\nReturn ONLY a raw JSON object mapping each payee to its category.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding text from a model
// response that should contain a single JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

var _ Categorizer = (*GeminiCategorizer)(nil)
