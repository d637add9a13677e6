// Package prompts provides the externalized LLM prompt templates for content
// generation and judging. Templates live in JSON files embedded at compile
// time and are parsed eagerly, so a malformed prompt file fails the first
// lookup rather than a player request deep in a session.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	loadOnce sync.Once
	loadErr  error
	// files maps filename -> key -> template.
	files map[string]map[string]string
)

func load() {
	files = make(map[string]map[string]string)
	entries, err := fs.Glob(promptFiles, "*.json")
	if err != nil {
		loadErr = fmt.Errorf("failed to list prompt files: %w", err)
		return
	}
	for _, name := range entries {
		data, err := promptFiles.ReadFile(name)
		if err != nil {
			loadErr = fmt.Errorf("failed to read prompt file %s: %w", name, err)
			return
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			loadErr = fmt.Errorf("failed to parse prompt file %s: %w", name, err)
			return
		}
		files[name] = templates
	}
}

// Get retrieves a prompt template by filename and key. The filename is bare,
// e.g. "generation.json".
func Get(filename, key string) (string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", loadErr
	}

	templates, ok := files[filename]
	if !ok {
		return "", fmt.Errorf("failed to read prompt file %s: no such embedded file", filename)
	}
	template, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return template, nil
}

// MustGet retrieves a prompt template, panicking if it is missing. Use for
// prompts required at initialization time.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return template
}

// Format replaces placeholders in the form {{.Key}} with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}
