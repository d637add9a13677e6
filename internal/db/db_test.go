package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "player@example.com", normalizeEmail("  Player@Example.COM "))
	assert.Equal(t, "", normalizeEmail("   "))
}

func TestPlayerType_NeverSerializesPasswordHash(t *testing.T) {
	p := Player{Name: "Ada", Email: "ada@example.com", PasswordHash: "secret"}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "password")
}
