package chat

import "bufio"

// startWriter drains the outbound queue to the socket, one framed line per
// entry. The queue only closes when the session is going away, so once it
// is flushed the writer closes the transport; that unblocks the read loop,
// which then reports the departure. A write failure closes the transport
// immediately.
func (s *Session) startWriter() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = s.conn.Close() }()
		w := bufio.NewWriter(s.conn)
		for line := range s.out {
			if _, err := w.WriteString(line + "\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}()
	return done
}
