package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()

	first := NewSession(nil, 8)
	second := NewSession(nil, 8)

	require.NoError(t, r.Insert("alice", first))
	require.ErrorIs(t, r.Insert("alice", second), ErrNicknameTaken)

	// The original holder keeps the name.
	got, ok := r.Lookup("alice")
	require.True(t, ok)
	require.Same(t, first, got)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Insert("bob", NewSession(nil, 8)))
	require.True(t, r.Remove("bob"))
	require.False(t, r.Remove("bob"))
	require.False(t, r.Remove("never-joined"))
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, r.Insert(name, NewSession(nil, 8)))
	}

	require.Equal(t, []string{"alice", "bob", "carol"}, r.Names())
	require.Equal(t, 3, r.Len())
}
