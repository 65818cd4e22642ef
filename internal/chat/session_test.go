package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name string
		line string
		want input
	}{
		{"empty line ignored", "", input{kind: inputEmpty}},
		{"crlf only ignored", "\r\n", input{kind: inputEmpty}},
		{"quit", "q", input{kind: inputQuit}},
		{"quit must be exact", "quit", input{kind: inputBroadcast, body: "quit"}},
		{"users", "/users", input{kind: inputUsers}},
		{"history", "/history", input{kind: inputHistory}},
		{"whisper", "/w bob hello there", input{kind: inputWhisper, target: "bob", body: "hello there"}},
		{"whisper without text", "/w bob", input{kind: inputMalformed}},
		{"whisper without target", "/w", input{kind: inputMalformed}},
		{"whisper with blank text", "/w bob   ", input{kind: inputMalformed}},
		{"plain broadcast", "hello everyone", input{kind: inputBroadcast, body: "hello everyone"}},
		{"unknown slash command broadcasts", "/dance", input{kind: inputBroadcast, body: "/dance"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseInput(tc.line))
		})
	}
}

func TestParseInputClipsLongBodies(t *testing.T) {
	long := strings.Repeat("x", maxBodyLen+100)

	got := parseInput(long)
	require.Equal(t, inputBroadcast, got.kind)
	require.Len(t, got.body, maxBodyLen)

	got = parseInput("/w bob " + long)
	require.Equal(t, inputWhisper, got.kind)
	require.Len(t, got.body, maxBodyLen)
}

func TestEnqueueEvictsOldestWhenFull(t *testing.T) {
	s := NewSession(nil, 2)

	s.Enqueue("first")
	s.Enqueue("second")
	s.Enqueue("third")

	require.Equal(t, "second", <-s.out)
	require.Equal(t, "third", <-s.out)
}

func TestEnqueueAfterCloseIsSafe(t *testing.T) {
	s := NewSession(nil, 2)

	s.CloseOut()
	s.CloseOut()
	s.Enqueue("late")

	_, ok := <-s.out
	require.False(t, ok)
}

func TestSessionStateOnlyMovesForward(t *testing.T) {
	s := NewSession(nil, 2)
	require.Equal(t, StateConnecting, s.State())

	s.transition(StateActive)
	require.Equal(t, StateActive, s.State())

	s.transition(StateConnecting)
	require.Equal(t, StateActive, s.State())

	s.transition(StateClosed)
	require.Equal(t, StateClosed, s.State())
}
