package chat

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionState tracks the connection lifecycle. Transitions only move
// forward: Connecting -> Active -> Closing -> Closed.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Session owns one client connection: the socket, the outbound queue, and
// the protocol state. The router never touches the socket; it only hands
// lines to Enqueue.
type Session struct {
	ID   string
	conn net.Conn
	out  chan string

	// name is written by the router when the join is admitted and read by
	// the router on departure; the session goroutine never reads it.
	name string

	mu        sync.Mutex
	state     SessionState
	outClosed bool
}

const DefaultQueueDepth = 32

func NewSession(conn net.Conn, queueDepth int) *Session {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	return &Session{
		ID:    uuid.NewString(),
		conn:  conn,
		out:   make(chan string, queueDepth),
		state: StateConnecting,
	}
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) transition(to SessionState) {
	s.mu.Lock()
	if to > s.state {
		s.state = to
	}
	s.mu.Unlock()
}

// Enqueue hands a line to the session's writer without ever blocking the
// caller. When the queue is full the oldest queued line is evicted, so a
// slow reader falls behind on old traffic rather than stalling the router.
func (s *Session) Enqueue(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outClosed {
		return
	}
	select {
	case s.out <- line:
		return
	default:
	}
	select {
	case <-s.out:
		OutboundDropped.Inc()
	default:
	}
	select {
	case s.out <- line:
	default:
		OutboundDropped.Inc()
	}
}

// CloseOut closes the outbound queue exactly once. The writer drains what
// is already queued and then stops.
func (s *Session) CloseOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outClosed {
		return
	}
	s.outClosed = true
	close(s.out)
}

// Run terminates the line protocol for one client: nickname handshake,
// then the read loop. It returns once the connection is dead and the
// outbound queue has been flushed.
func (s *Session) Run(commands chan<- Command, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", s.ID)

	writerDone := s.startWriter()
	defer func() {
		s.transition(StateClosing)
		s.CloseOut()
		<-writerDone
		_ = s.conn.Close()
		s.transition(StateClosed)
	}()

	reader := bufio.NewReader(s.conn)

	// First line is the requested nickname. One attempt: a rejected name
	// closes the connection, the client reconnects to retry.
	line, err := readLine(reader)
	if err != nil {
		return
	}
	name := strings.TrimSpace(line)

	reply := make(chan error, 1)
	commands <- Command{Kind: CmdJoin, Session: s, Name: name, Reply: reply}
	if joinErr := <-reply; joinErr != nil {
		s.Enqueue("ERR " + joinErr.Error())
		logger.Info("join rejected", "name", name, "reason", joinErr.Error())
		return
	}
	logger.Info("session active", "name", name)

	for {
		line, err := readLine(reader)
		if err != nil {
			commands <- Command{Kind: CmdLeave, Session: s}
			return
		}

		in := parseInput(line)
		switch in.kind {
		case inputEmpty:
			continue
		case inputQuit:
			s.Enqueue("Bye")
			commands <- Command{Kind: CmdLeave, Session: s}
			return
		case inputMalformed:
			s.Enqueue("ERR malformed_command")
		case inputUsers:
			commands <- Command{Kind: CmdUsers, Session: s}
		case inputHistory:
			commands <- Command{Kind: CmdHistory, Session: s}
		case inputWhisper:
			commands <- Command{Kind: CmdPrivate, Session: s, Target: in.target, Body: in.body}
		case inputBroadcast:
			commands <- Command{Kind: CmdBroadcast, Session: s, Body: in.body}
		}
	}
}

type inputKind int

const (
	inputEmpty inputKind = iota
	inputQuit
	inputBroadcast
	inputWhisper
	inputUsers
	inputHistory
	inputMalformed
)

type input struct {
	kind   inputKind
	target string
	body   string
}

var whisperRe = regexp.MustCompile(`^/w\s+(\S+)\s+(.+)$`)

// parseInput maps one trimmed inbound line onto the command grammar. Only a
// misshapen /w line is malformed; any other non-empty line is a broadcast.
func parseInput(line string) input {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case line == "":
		return input{kind: inputEmpty}
	case line == "q":
		return input{kind: inputQuit}
	case line == "/users":
		return input{kind: inputUsers}
	case line == "/history":
		return input{kind: inputHistory}
	case strings.HasPrefix(line, "/w"):
		m := whisperRe.FindStringSubmatch(line)
		if m == nil {
			return input{kind: inputMalformed}
		}
		body := strings.TrimSpace(m[2])
		if body == "" {
			return input{kind: inputMalformed}
		}
		return input{kind: inputWhisper, target: m[1], body: clipBody(body)}
	default:
		return input{kind: inputBroadcast, body: clipBody(line)}
	}
}

func clipBody(body string) string {
	if len(body) > maxBodyLen {
		return body[:maxBodyLen]
	}
	return body
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}
