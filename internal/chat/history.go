package chat

// History is a capacity-bounded ring of past broadcast and system messages.
// Private messages are never retained; a third party must not be able to
// read someone else's whisper through /history.
//
// Not safe for concurrent use: only the router goroutine touches it.
type History struct {
	entries []Message
	start   int
	count   int
}

const DefaultHistoryCapacity = 100

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{entries: make([]Message, capacity)}
}

// Append records a broadcast or system message, evicting the oldest entry
// when the ring is full. Private messages are ignored.
func (h *History) Append(m Message) {
	if m.Kind == KindPrivate {
		return
	}
	if h.count == len(h.entries) {
		h.entries[h.start] = m
		h.start = (h.start + 1) % len(h.entries)
		return
	}
	h.entries[(h.start+h.count)%len(h.entries)] = m
	h.count++
}

// Entries returns the retained messages in chronological order.
func (h *History) Entries() []Message {
	out := make([]Message, 0, h.count)
	for i := 0; i < h.count; i++ {
		out = append(out, h.entries[(h.start+i)%len(h.entries)])
	}
	return out
}

func (h *History) Len() int { return h.count }

func (h *History) Cap() int { return len(h.entries) }
