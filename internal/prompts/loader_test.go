package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get("generation.json", "job-listing")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "job listing")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("generation.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFormat_ReplacesPlaceholders(t *testing.T) {
	result := Format("Generate a task for a {{.Profession}} at level {{.Level}}.", map[string]string{
		"Profession": "ios_engineer",
		"Level":      "3",
	})
	assert.Equal(t, "Generate a task for a ios_engineer at level 3.", result)
}

func TestAllGenerationPromptsPresent(t *testing.T) {
	for _, key := range []string{"job-listing", "interview-questions", "task", "meeting", "meeting-response"} {
		prompt, err := Get("generation.json", key)
		require.NoError(t, err, "prompt %s", key)
		assert.Contains(t, prompt, "Return ONLY valid JSON", "prompt %s must demand JSON output", key)
	}
}
