package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDIssuerFormat(t *testing.T) {
	var issuer UUIDIssuer
	for i := 0; i < 200; i++ {
		key, err := issuer.NewKey()
		require.NoError(t, err)
		assert.True(t, Valid(key), "not a v4 uuid: %s", key)
	}
}

func TestUUIDIssuerUnique(t *testing.T) {
	var issuer UUIDIssuer
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		key, err := issuer.NewKey()
		require.NoError(t, err)
		_, dup := seen[key]
		require.False(t, dup, "duplicate key %s", key)
		seen[key] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"550e8400-e29b-41d4-b716-446655440000", true},
		{"550e8400-e29b-11d4-a716-446655440000", false}, // version 1
		{"550e8400-e29b-41d4-c716-446655440000", false}, // bad variant
		{"550e8400e29b41d4a716446655440000", false},
		{"", false},
		{"bench-1-2-3", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.key), tt.key)
	}
}
