package chat

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Config carries the server knobs; zero values fall back to defaults.
type Config struct {
	Addr            string
	HistoryCapacity int
	QueueDepth      int
	ShutdownGrace   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = DefaultQueueDepth
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 3 * time.Second
	}
	return c
}

// Server accepts connections and spawns one session per client. Stop is the
// only clean way down: notice broadcast, queue flush, then force close.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	router   *Router
	listener net.Listener

	mu       sync.Mutex
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Server{
		cfg:      cfg,
		logger:   logger,
		router:   NewRouter(128, cfg.HistoryCapacity, logger),
		sessions: make(map[*Session]struct{}),
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	go s.router.Run()
	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, useful with ":0".
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed: shutdown in progress.
			return
		}

		sess := NewSession(conn, s.cfg.QueueDepth)
		s.logger.Info("client connected", "addr", conn.RemoteAddr().String(), "session_id", sess.ID)

		s.track(sess)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(sess)
			sess.Run(s.router.Commands(), s.logger)
		}()
	}
}

func (s *Server) track(sess *Session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// Stop coordinates the shutdown: stop accepting, have the router announce
// the shutdown and close every outbound queue, give writers a grace period
// to flush, then force-close whatever transports remain.
func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		_ = s.listener.Close()
	}

	done := make(chan error, 1)
	s.router.Commands() <- Command{Kind: CmdShutdown, Reply: done}
	<-done

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(s.cfg.ShutdownGrace):
		s.logger.Warn("grace period elapsed, force closing sessions")
		s.forceClose()
		select {
		case <-finished:
		case <-time.After(time.Second):
			s.logger.Warn("sessions still running after force close")
		}
	}

	s.router.Stop()
	s.router.Wait()
	s.logger.Info("shutdown complete")
}

func (s *Server) forceClose() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.conn.Close()
	}
}
