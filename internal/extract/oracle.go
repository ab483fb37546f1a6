package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Document is a binary payload handed to the oracle, typically an uploaded
// image or PDF of a quotation.
type Document struct {
	MIMEType string
	Data     []byte
}

// Oracle is the external model API boundary. Generate sends a prompt, with
// an optional document attachment, to the named model and returns the raw
// response text.
type Oracle interface {
	Generate(ctx context.Context, model, prompt string, doc *Document) (string, error)
}

// GeminiOracle calls the Gemini API.
type GeminiOracle struct {
	client *genai.Client
}

// NewGeminiOracle creates an oracle backed by the Gemini API.
func NewGeminiOracle(ctx context.Context, apiKey string) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiOracle{client: client}, nil
}

// Generate sends the prompt (and document, when given) to the model and
// concatenates all text parts of the first candidate.
func (o *GeminiOracle) Generate(ctx context.Context, model, prompt string, doc *Document) (string, error) {
	m := o.client.GenerativeModel(model)

	parts := []genai.Part{genai.Text(prompt)}
	if doc != nil {
		parts = append(parts, genai.Blob{MIMEType: doc.MIMEType, Data: doc.Data})
	}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty candidate list", ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying API client.
func (o *GeminiOracle) Close() error {
	return o.client.Close()
}

// isTransient reports whether an oracle error is worth retrying: rate
// limiting, overload, or a server-side hiccup.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code == 503 || apiErr.Code == 500
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"overloaded", "resource exhausted", "resource_exhausted", "quota", "unavailable", "429", "503"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
