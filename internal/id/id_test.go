package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that generated identifiers are UUIDv7 so audit records sort by creation time.
// Scope: Unit Test
// Expected: Every generated value parses as a UUID with version 7 and values are unique.
// Test Case ID: ID-01
func TestNewUUIDv7(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		v := NewUUIDv7()

		parsed, err := uuid.Parse(v)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())

		_, dup := seen[v]
		assert.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}
	}
}
