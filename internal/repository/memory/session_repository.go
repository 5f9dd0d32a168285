package memory

import (
	"time"

	"blog-editor-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps open editor sessions with a sliding TTL. Expired
// or deleted sessions are released.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	c := cache.New(ttl, cleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*store.Session); ok {
			s.Release()
		}
	})
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and extends its lifetime.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	s := x.(*store.Session)
	r.cache.Set(sessionID, s, cache.DefaultExpiration)
	return s, true
}

// FindByBlog lists the live sessions editing blogID.
func (r *SessionRepository) FindByBlog(blogID string) []*store.Session {
	var out []*store.Session
	for _, item := range r.cache.Items() {
		if s, ok := item.Object.(*store.Session); ok && s.BlogID == blogID {
			out = append(out, s)
		}
	}
	return out
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// Flush releases every session.
func (r *SessionRepository) Flush() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
