// Package voice transcribes recorded meeting turns into plain text so spoken
// input can be graded the same way as typed input.
package voice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/career-sim/internal/llm"
	"github.com/jonathan/career-sim/internal/prompts"
)

// transcribeTimeout bounds a single transcription call. Audio uploads are
// slower than text prompts.
const transcribeTimeout = 90 * time.Second

// TranscriptionError represents a failed transcription attempt.
type TranscriptionError struct {
	Message string
	Cause   error
}

func (e *TranscriptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transcription failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transcription failed: %s", e.Message)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Cause
}

// Model is the minimal generative surface the transcriber needs.
type Model interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Transcriber converts audio payloads into text through a multimodal model.
type Transcriber struct {
	model Model
	close func() error
}

// NewTranscriber creates a Transcriber backed by the Gemini API.
func NewTranscriber(ctx context.Context, apiKey string) (*Transcriber, error) {
	if apiKey == "" {
		return nil, &TranscriptionError{Message: "API key is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &TranscriptionError{Message: "failed to create client", Cause: err}
	}

	config := llm.DefaultConfig()
	model := client.GenerativeModel(config.GetModel(llm.TierLite))

	return &Transcriber{model: model, close: client.Close}, nil
}

// NewTranscriberWithModel creates a Transcriber around an existing model.
// Used in tests.
func NewTranscriberWithModel(model Model) *Transcriber {
	return &Transcriber{model: model}
}

// Transcribe converts one audio payload into plain text.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", &TranscriptionError{Message: "empty audio payload"}
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	prompt := prompts.MustGet("judge.json", "transcribe")

	resp, err := t.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: audio},
	)
	if err != nil {
		return "", &TranscriptionError{Message: "transcription call failed", Cause: err}
	}

	text, err := extractText(resp)
	if err != nil {
		return "", &TranscriptionError{Message: "empty transcription response", Cause: err}
	}

	return strings.TrimSpace(text), nil
}

// Close releases the underlying client, if this Transcriber owns one.
func (t *Transcriber) Close() error {
	if t.close != nil {
		return t.close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
