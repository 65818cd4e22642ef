package chat

import "sort"

// Registry maps each nickname to its active session. Uniqueness is enforced
// at insert time.
//
// Not safe for concurrent use: only the router goroutine touches it.
type Registry struct {
	users map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*Session)}
}

// Insert claims the name for the session. It fails with ErrNicknameTaken
// when the name is already held by another session.
func (r *Registry) Insert(name string, s *Session) error {
	if _, exists := r.users[name]; exists {
		return ErrNicknameTaken
	}
	r.users[name] = s
	return nil
}

// Remove releases the name. It reports whether the name was present, so a
// repeated departure stays a no-op for the caller.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.users[name]; !ok {
		return false
	}
	delete(r.users, name)
	return true
}

func (r *Registry) Lookup(name string) (*Session, bool) {
	s, ok := r.users[name]
	return s, ok
}

// Names returns the registered nicknames in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sessions returns the registered sessions in no particular order.
func (r *Registry) Sessions() []*Session {
	sessions := make([]*Session, 0, len(r.users))
	for _, s := range r.users {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Registry) Len() int { return len(r.users) }
