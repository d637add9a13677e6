// Package schemas embeds the JSON Schema files that generated content must
// validate against before it is accepted into a session, and provides the
// validation that enforces them.
package schemas

import (
	"embed"
	"fmt"
)

//go:embed *.schema.json
var schemaFS embed.FS

// Get returns the schema content for the given kind, e.g. "job_listing"
// resolves to job_listing.schema.json.
func Get(kind string) (string, error) {
	data, err := schemaFS.ReadFile(kind + ".schema.json")
	if err != nil {
		return "", fmt.Errorf("failed to load schema for kind %q: %w", kind, err)
	}
	return string(data), nil
}

// MustGet returns the schema content for the given kind, panicking if the
// schema file does not exist. Intended for kinds known at compile time.
func MustGet(kind string) string {
	content, err := Get(kind)
	if err != nil {
		panic(err)
	}
	return content
}
