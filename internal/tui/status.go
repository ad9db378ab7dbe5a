package tui

import "sync"

// Level ranks a status line message.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// StatusLine keeps the latest notice for display inside the browser. It
// implements httpclient.Notifier so view models can report into it while
// the terminal is in alternate-screen mode.
type StatusLine struct {
	mu    sync.Mutex
	msg   string
	level Level
}

func (s *StatusLine) Success(msg string) { s.set(LevelSuccess, msg) }
func (s *StatusLine) Info(msg string)    { s.set(LevelInfo, msg) }
func (s *StatusLine) Warning(msg string) { s.set(LevelWarning, msg) }
func (s *StatusLine) Error(msg string)   { s.set(LevelError, msg) }

func (s *StatusLine) set(level Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level, s.msg = level, msg
}

// Last returns the latest message.
func (s *StatusLine) Last() (Level, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level, s.msg
}
