// Package store holds the in-memory state of open editor sessions.
package store

import (
	"errors"
	"sync"
	"time"

	"blog-editor-be/pkg/editor"
)

var ErrSessionNotFound = errors.New("editor session not found")

// Session is one open editor bound to its owner and target blog.
type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	ProjectID string      `json:"project_id"`
	BlogID    string      `json:"blog_id"`
	Mode      editor.Mode `json:"mode"`
	OpenedAt  time.Time   `json:"opened_at"`

	Editor *editor.Session `json:"-"`

	mu      sync.Mutex
	cleanup []func()
}

// MarkSaved records that the blog has been stored. A create session becomes
// an edit session; the result reports whether it switched.
func (s *Session) MarkSaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Mode == editor.ModeCreate {
		s.Mode = editor.ModeEdit
		return true
	}
	return false
}

// CurrentMode is Mode read under the session lock.
func (s *Session) CurrentMode() editor.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Mode
}

// OnClose registers fn to run when the session is released.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanup = append(s.cleanup, fn)
}

// Release runs the close hooks once and closes the editor.
func (s *Session) Release() {
	s.mu.Lock()
	hooks := s.cleanup
	s.cleanup = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	if s.Editor != nil {
		s.Editor.Close()
	}
}

// OwnedBy reports whether userID opened the session.
func (s *Session) OwnedBy(userID string) bool {
	return s.UserID == userID
}
