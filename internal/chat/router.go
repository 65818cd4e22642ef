package chat

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Router is the single owner of the registry and the history. It processes
// one command at a time in arrival order, so every client observes
// broadcasts and system notices in the same global order.
type Router struct {
	commands chan Command
	stopCh   chan struct{}
	doneCh   chan struct{}

	registry *Registry
	history  *History
	draining bool
	logger   *slog.Logger
}

func NewRouter(buffer, historyCapacity int, logger *slog.Logger) *Router {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		commands: make(chan Command, buffer),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		registry: NewRegistry(),
		history:  NewHistory(historyCapacity),
		logger:   logger,
	}
}

func (r *Router) Commands() chan<- Command {
	return r.commands
}

// Stop signals the Run loop to exit.
func (r *Router) Stop() {
	close(r.stopCh)
}

// Wait blocks until the Run loop has completely finished.
func (r *Router) Wait() {
	<-r.doneCh
}

func (r *Router) Run() {
	defer close(r.doneCh)

	for {
		select {
		case cmd := <-r.commands:
			start := time.Now()
			kind := r.dispatch(cmd)
			CommandsTotal.WithLabelValues(kind).Inc()
			CommandProcessingDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		case <-r.stopCh:
			return
		}
	}
}

func (r *Router) dispatch(cmd Command) string {
	switch cmd.Kind {
	case CmdJoin:
		r.handleJoin(cmd)
		return "join"
	case CmdLeave:
		r.handleLeave(cmd)
		return "leave"
	case CmdBroadcast:
		r.handleBroadcast(cmd)
		return "broadcast"
	case CmdPrivate:
		r.handlePrivate(cmd)
		return "private"
	case CmdUsers:
		r.handleUsers(cmd)
		return "users"
	case CmdHistory:
		r.handleHistory(cmd)
		return "history"
	case CmdShutdown:
		r.handleShutdown(cmd)
		return "shutdown"
	}
	return "unknown"
}

func (r *Router) handleJoin(cmd Command) {
	if r.draining {
		ack(cmd.Reply, ErrServerClosing)
		return
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNicknameLen {
		ack(cmd.Reply, ErrNicknameInvalid)
		return
	}
	if err := r.registry.Insert(name, cmd.Session); err != nil {
		ack(cmd.Reply, err)
		return
	}

	cmd.Session.name = name
	cmd.Session.transition(StateActive)
	ConnectedUsers.Set(float64(r.registry.Len()))

	r.logger.Info("user joined", "name", name, "session_id", cmd.Session.ID, "online", r.registry.Len())

	cmd.Session.Enqueue("OK")
	r.announce(name + " joined")
	ack(cmd.Reply, nil)
}

func (r *Router) handleLeave(cmd Command) {
	if cmd.Session == nil || cmd.Session.name == "" {
		return
	}
	name := cmd.Session.name
	// Idempotent: a second departure for the same name changes nothing and
	// announces nothing.
	if !r.registry.Remove(name) {
		return
	}
	ConnectedUsers.Set(float64(r.registry.Len()))
	cmd.Session.CloseOut()

	r.logger.Info("user left", "name", name, "session_id", cmd.Session.ID, "online", r.registry.Len())
	r.announce(name + " left")
}

func (r *Router) handleBroadcast(cmd Command) {
	if cmd.Session == nil || cmd.Session.name == "" || cmd.Body == "" {
		return
	}
	msg := Message{Kind: KindBroadcast, From: cmd.Session.name, Body: cmd.Body, At: time.Now()}
	r.record(msg)
	r.fanOut(msg.Line())
}

func (r *Router) handlePrivate(cmd Command) {
	if cmd.Session == nil || cmd.Session.name == "" || cmd.Body == "" {
		return
	}
	if cmd.Target == cmd.Session.name {
		cmd.Session.Enqueue("ERR " + ErrSelfWhisper.Error())
		return
	}
	target, ok := r.registry.Lookup(cmd.Target)
	if !ok {
		cmd.Session.Enqueue("ERR " + ErrUnknownRecipient.Error())
		return
	}

	// Whispers are never recorded in the history.
	msg := Message{Kind: KindPrivate, From: cmd.Session.name, To: cmd.Target, Body: cmd.Body, At: time.Now()}
	target.Enqueue(msg.Line())
	cmd.Session.Enqueue("WHISPER to " + cmd.Target + ": " + cmd.Body)
}

func (r *Router) handleUsers(cmd Command) {
	if cmd.Session == nil {
		return
	}
	names := r.registry.Names()
	if len(names) == 0 {
		cmd.Session.Enqueue("USERS: (none)")
		return
	}
	cmd.Session.Enqueue("USERS: " + strings.Join(names, ","))
}

func (r *Router) handleHistory(cmd Command) {
	if cmd.Session == nil {
		return
	}
	entries := r.history.Entries()
	cmd.Session.Enqueue("HISTORY (" + strconv.Itoa(len(entries)) + "):")
	for _, m := range entries {
		cmd.Session.Enqueue(m.Line())
	}
}

// handleShutdown announces the shutdown to everyone, closes every outbound
// queue so the writers flush and stop, and refuses any later join. The Run
// loop keeps draining so straggler Leave commands stay harmless no-ops.
func (r *Router) handleShutdown(cmd Command) {
	r.draining = true

	r.announce("server is shutting down")
	for _, s := range r.registry.Sessions() {
		r.registry.Remove(s.name)
		s.CloseOut()
	}
	ConnectedUsers.Set(0)

	r.logger.Info("router draining")
	ack(cmd.Reply, nil)
}

// announce records a system notice and delivers it to every active session.
func (r *Router) announce(text string) {
	msg := Message{Kind: KindSystem, Body: text, At: time.Now()}
	r.record(msg)
	r.fanOut(msg.Line())
}

func (r *Router) record(msg Message) {
	r.history.Append(msg)
	HistoryEntries.Set(float64(r.history.Len()))
}

func (r *Router) fanOut(line string) {
	for _, s := range r.registry.Sessions() {
		s.Enqueue(line)
	}
}

func ack(ch chan error, err error) {
	if ch == nil {
		return
	}
	ch <- err
	close(ch)
}
