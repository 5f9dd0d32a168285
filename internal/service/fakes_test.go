package service

import (
	"context"
	"errors"
	"sync"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/repository/cache"
	"blog-editor-be/internal/repository/contract"
	"blog-editor-be/internal/repository/specification"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/events"

	"github.com/google/uuid"
)

// memDB is a tiny in-memory stand-in for the blogs and blog_media tables.
type memDB struct {
	mu    sync.Mutex
	blogs map[uuid.UUID]*entity.Blog
	media []*entity.BlogMedia

	failCreateBulk error
	failSave       error
	failDelete     error
	commits        int
}

func newMemDB() *memDB {
	return &memDB{blogs: map[uuid.UUID]*entity.Blog{}}
}

func (d *memDB) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &memUow{db: d}
}

func (d *memDB) blog(id uuid.UUID) *entity.Blog {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blogs[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (d *memDB) liveMedia(blogId uuid.UUID) []*entity.BlogMedia {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*entity.BlogMedia
	for _, m := range d.media {
		if m.BlogId == blogId && !m.IsDeleted {
			out = append(out, m)
		}
	}
	return out
}

type memUow struct {
	db *memDB
}

func (u *memUow) Begin(context.Context) error { return nil }
func (u *memUow) Rollback() error             { return nil }

func (u *memUow) Commit() error {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	u.db.commits++
	return nil
}

func (u *memUow) BlogRepository() contract.BlogRepository           { return &memBlogRepo{db: u.db} }
func (u *memUow) BlogMediaRepository() contract.BlogMediaRepository { return &memMediaRepo{db: u.db} }

type memBlogRepo struct {
	db *memDB
}

func blogMatches(b *entity.Blog, specs []specification.Specification) bool {
	if b.IsDeleted {
		return false
	}
	for _, s := range specs {
		switch s := s.(type) {
		case specification.ByID:
			if b.Id != s.ID {
				return false
			}
		case specification.ByProjectID:
			if b.ProjectId != s.ProjectID {
				return false
			}
		case specification.BlogOwnedByUser:
			if b.UserId != s.UserID {
				return false
			}
		case specification.ByCategory:
			if b.Category != s.Category {
				return false
			}
		}
	}
	return true
}

func (r *memBlogRepo) Create(_ context.Context, blog *entity.Blog) error {
	if r.db.failSave != nil {
		return r.db.failSave
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *blog
	r.db.blogs[blog.Id] = &cp
	return nil
}

func (r *memBlogRepo) Update(ctx context.Context, blog *entity.Blog) error {
	return r.Create(ctx, blog)
}

func (r *memBlogRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if b, ok := r.db.blogs[id]; ok {
		b.IsDeleted = true
	}
	return nil
}

func (r *memBlogRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Blog, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memBlogRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Blog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.Blog
	for _, b := range r.db.blogs {
		if blogMatches(b, specs) {
			cp := *b
			out = append(out, &cp)
		}
	}
	for _, s := range specs {
		if p, ok := s.(specification.Pagination); ok {
			if p.Offset >= len(out) {
				return []*entity.Blog{}, nil
			}
			out = out[p.Offset:]
			if len(out) > p.Limit {
				out = out[:p.Limit]
			}
		}
	}
	return out, nil
}

func (r *memBlogRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type memMediaRepo struct {
	db *memDB
}

func (r *memMediaRepo) CreateBulk(_ context.Context, media []*entity.BlogMedia) error {
	if r.db.failCreateBulk != nil {
		return r.db.failCreateBulk
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.media = append(r.db.media, media...)
	return nil
}

func (r *memMediaRepo) DeleteByPaths(_ context.Context, blogId uuid.UUID, paths []string) (int64, error) {
	if r.db.failDelete != nil {
		return 0, r.db.failDelete
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, m := range r.db.media {
		if m.BlogId != blogId || m.IsDeleted {
			continue
		}
		for _, p := range paths {
			if m.Path == p {
				m.IsDeleted = true
				n++
			}
		}
	}
	return n, nil
}

func (r *memMediaRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.BlogMedia, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*entity.BlogMedia
	for _, m := range r.db.media {
		if m.IsDeleted {
			continue
		}
		ok := true
		for _, s := range specs {
			switch s := s.(type) {
			case specification.ByBlogID:
				ok = ok && m.BlogId == s.BlogID
			case specification.ByProjectID:
				ok = ok && m.ProjectId == s.ProjectID
			}
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMediaRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	failOn  string
	removed []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func storageKey(projectID, blogID, uploadPath string) string {
	return projectID + "/" + blogID + "/" + uploadPath
}

func (s *memStorage) Save(projectID, blogID, uploadPath string, data []byte) error {
	if uploadPath == s.failOn {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[storageKey(projectID, blogID, uploadPath)] = data
	return nil
}

func (s *memStorage) Remove(projectID, blogID, uploadPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, storageKey(projectID, blogID, uploadPath))
	s.removed = append(s.removed, uploadPath)
	return nil
}

func (s *memStorage) Exists(projectID, blogID, uploadPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[storageKey(projectID, blogID, uploadPath)]
	return ok
}

func (s *memStorage) URL(projectID, blogID, uploadPath string) string {
	return "http://cdn.test/blogs/" + storageKey(projectID, blogID, uploadPath)
}

type memCache struct {
	mu    sync.Mutex
	items map[string]*cache.BlogContent
	gets  int
}

func newMemCache() *memCache {
	return &memCache{items: map[string]*cache.BlogContent{}}
}

func (c *memCache) Get(_ context.Context, blogID string) (*cache.BlogContent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.items[blogID], nil
}

func (c *memCache) Set(_ context.Context, content *cache.BlogContent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[content.BlogID] = content
	return nil
}

func (c *memCache) Delete(_ context.Context, blogID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, blogID)
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []dto.MediaCleanupMessage
}

func (p *recordingPublisher) SendMediaCleanup(_ context.Context, msg dto.MediaCleanupMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) messages() []dto.MediaCleanupMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.MediaCleanupMessage(nil), p.sent...)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEvents) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type sentMessage struct {
	SessionID string
	Type      string
	Payload   interface{}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) SendToSession(sessionID, msgType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{SessionID: sessionID, Type: msgType, Payload: payload})
}

func (n *recordingNotifier) ofType(msgType string) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMessage
	for _, m := range n.sent {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}
