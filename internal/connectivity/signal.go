package connectivity

import "sync/atomic"

// Signal reports whether the remote content service is reachable. It is
// sampled on every call, never cached by consumers.
type Signal interface {
	Online() bool
}

// Static is a fixed signal, used for --offline and tests.
type Static bool

func (s Static) Online() bool {
	return bool(s)
}

// Switch is a signal that can be flipped at runtime.
type Switch struct {
	online atomic.Bool
}

func NewSwitch(online bool) *Switch {
	s := &Switch{}
	s.online.Store(online)
	return s
}

func (s *Switch) Set(online bool) {
	s.online.Store(online)
}

func (s *Switch) Online() bool {
	return s.online.Load()
}
