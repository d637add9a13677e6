package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}},
		},
	}
}

func TestTranscribe(t *testing.T) {
	fake := &fakeModel{resp: textResponse("  I think we should ship on Friday.  ")}
	tr := NewTranscriberWithModel(fake)

	text, err := tr.Transcribe(context.Background(), []byte{0x01, 0x02}, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "I think we should ship on Friday.", text)

	// Prompt first, then the audio blob.
	require.Len(t, fake.parts, 2)
	blob, ok := fake.parts[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "audio/wav", blob.MIMEType)
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	tr := NewTranscriberWithModel(&fakeModel{})

	_, err := tr.Transcribe(context.Background(), nil, "audio/wav")
	require.Error(t, err)

	var terr *TranscriptionError
	assert.ErrorAs(t, err, &terr)
}

func TestTranscribe_ModelError(t *testing.T) {
	upstream := errors.New("quota exhausted")
	tr := NewTranscriberWithModel(&fakeModel{err: upstream})

	_, err := tr.Transcribe(context.Background(), []byte{0x01}, "audio/mp3")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}

func TestTranscribe_EmptyResponse(t *testing.T) {
	tr := NewTranscriberWithModel(&fakeModel{resp: &genai.GenerateContentResponse{}})

	_, err := tr.Transcribe(context.Background(), []byte{0x01}, "audio/mp3")
	require.Error(t, err)
}

func TestNewTranscriber_RequiresAPIKey(t *testing.T) {
	_, err := NewTranscriber(context.Background(), "")
	require.Error(t, err)
}
