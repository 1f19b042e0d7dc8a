package server

import "sync"

// hub fans tree-changed signals out to live canvas sessions.
type hub struct {
	mu       sync.Mutex
	sessions map[*session]struct{}
	done     chan struct{}
	closed   bool
}

func newHub() *hub {
	return &hub{
		sessions: make(map[*session]struct{}),
		done:     make(chan struct{}),
	}
}

// register adds s; it reports false once the hub is shutting down.
func (h *hub) register(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// broadcast signals every session except the originator. Signals coalesce:
// a session that has not yet handled the previous one reloads only once.
func (h *hub) broadcast(except *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		if s == except {
			continue
		}
		select {
		case s.reload <- struct{}{}:
		default:
		}
	}
}

// size returns the number of registered sessions.
func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// closeAll ends every session and refuses new ones.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
}
