package memory

import (
	"testing"
	"time"

	"blog-editor-be/pkg/editor"
	"blog-editor-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, id, blogID string) *store.Session {
	t.Helper()
	ed, err := editor.NewSession(editor.Options{})
	require.NoError(t, err)
	return &store.Session{ID: id, UserID: "u", BlogID: blogID, Editor: ed}
}

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Minute)

	a := newSession(t, "a", "blog-1")
	b := newSession(t, "b", "blog-1")
	c := newSession(t, "c", "blog-2")
	for _, s := range []*store.Session{a, b, c} {
		repo.Save(s)
	}

	got, ok := repo.Get("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Len(t, repo.FindByBlog("blog-1"), 2)
	assert.Equal(t, 3, repo.Count())

	released := false
	a.OnClose(func() { released = true })
	repo.Delete("a")

	_, ok = repo.Get("a")
	assert.False(t, ok)
	assert.True(t, released)
	assert.ErrorIs(t, a.Editor.TypeText("x"), editor.ErrSessionClosed)

	repo.Flush()
	assert.Zero(t, repo.Count())
	assert.ErrorIs(t, c.Editor.TypeText("x"), editor.ErrSessionClosed)
}

func TestSessionRepositoryExpiry(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, 5*time.Millisecond)
	s := newSession(t, "a", "blog")
	repo.Save(s)

	assert.Eventually(t, func() bool {
		return s.Editor.TypeText("x") == editor.ErrSessionClosed
	}, time.Second, 10*time.Millisecond)
	_, ok := repo.Get("a")
	assert.False(t, ok)
}
