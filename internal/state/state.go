package state

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// State is the mutable selection shared by the HTTP handlers: which token the
// dashboard is focused on and how the last render went.
type State struct {
	focusMu sync.RWMutex
	focus   string

	lastOK    atomic.Bool
	renderMu  sync.RWMutex
	lastAt    time.Time
	lastError string
}

func NewState(defaultFocus string) *State {
	s := &State{}
	s.SetFocus(defaultFocus)
	return s
}

// SetFocus stores a token display name. Names are case sensitive; only
// surrounding whitespace is removed.
func (s *State) SetFocus(name string) string {
	name = strings.TrimSpace(name)
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	s.focus = name
	return name
}

func (s *State) Focus() string {
	s.focusMu.RLock()
	defer s.focusMu.RUnlock()
	return s.focus
}

// RecordRender notes the outcome of a render; a nil err marks success.
func (s *State) RecordRender(at time.Time, err error) {
	s.lastOK.Store(err == nil)
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.lastAt = at
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}

func (s *State) LastRenderOK() bool { return s.lastOK.Load() }

func (s *State) LastRender() (time.Time, string) {
	s.renderMu.RLock()
	defer s.renderMu.RUnlock()
	return s.lastAt, s.lastError
}
