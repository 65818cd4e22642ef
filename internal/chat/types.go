package chat

import "time"

// MessageKind classifies a routed chat message.
type MessageKind int

const (
	KindBroadcast MessageKind = iota
	KindPrivate
	KindSystem
)

// Message is one routed chat message. To is set only for KindPrivate.
type Message struct {
	Kind MessageKind
	From string
	To   string
	Body string
	At   time.Time
}

// Line renders the message as a single wire line, without the trailing newline.
func (m Message) Line() string {
	switch m.Kind {
	case KindSystem:
		return "SYSTEM: " + m.Body
	case KindPrivate:
		return "WHISPER " + m.From + ": " + m.Body
	default:
		return m.From + ": " + m.Body
	}
}

type CommandKind int

const (
	CmdJoin CommandKind = iota
	CmdLeave
	CmdBroadcast
	CmdPrivate
	CmdUsers
	CmdHistory
	CmdShutdown
)

// Command is one unit of work for the router. Every state change to the
// registry and the history goes through exactly one of these.
type Command struct {
	Kind    CommandKind
	Session *Session
	Name    string     // requested nickname, join only
	Target  string     // whisper recipient, private only
	Body    string     // message text
	Reply   chan error // join ack; shutdown reuses it as a done signal
}

const (
	maxNicknameLen = 16
	maxBodyLen     = 512
)

var (
	ErrNicknameTaken    = errorString("nickname_taken")
	ErrNicknameInvalid  = errorString("nickname_invalid")
	ErrUnknownRecipient = errorString("user_not_found")
	ErrSelfWhisper      = errorString("cannot_whisper_self")
	ErrServerClosing    = errorString("server_shutting_down")
)

type errorString string

func (e errorString) Error() string { return string(e) }
