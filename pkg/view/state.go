// Package view tracks the presentational state of the widget: whether it is
// expanded or minimized, whether the settings panel is open and what the
// user is typing. None of it affects the conversation.
package view

import "sync"

type Visibility string

const (
	Expanded  Visibility = "expanded"
	Minimized Visibility = "minimized"
)

type State struct {
	mu           sync.RWMutex
	visibility   Visibility
	settingsOpen bool
	pendingInput string
}

// New returns an expanded widget with the settings panel closed.
func New() *State {
	return &State{visibility: Expanded}
}

func (s *State) Visibility() Visibility {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibility
}

func (s *State) IsMinimized() bool {
	return s.Visibility() == Minimized
}

// Minimize collapses the widget. It reports whether the state changed.
func (s *State) Minimize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visibility == Minimized {
		return false
	}
	s.visibility = Minimized
	return true
}

// Restore expands a minimized widget. It reports whether the state changed.
func (s *State) Restore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visibility == Expanded {
		return false
	}
	s.visibility = Expanded
	return true
}

func (s *State) SettingsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settingsOpen
}

// ToggleSettings flips the settings panel. The panel can only be toggled
// while expanded; its last value is kept across minimize/restore.
func (s *State) ToggleSettings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visibility != Expanded {
		return s.settingsOpen
	}
	s.settingsOpen = !s.settingsOpen
	return s.settingsOpen
}

func (s *State) PendingInput() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingInput
}

func (s *State) SetPendingInput(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingInput = v
}

func (s *State) ClearPendingInput() {
	s.SetPendingInput("")
}
