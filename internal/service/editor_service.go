package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"blog-editor-be/internal/config"
	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/pkg/serverutils"
	"blog-editor-be/internal/repository/cache"
	"blog-editor-be/internal/repository/specification"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/editor"
	"blog-editor-be/pkg/store"
	"blog-editor-be/pkg/toolbar"
	"blog-editor-be/pkg/tracker"

	"github.com/google/uuid"
)

const (
	logModule          = "EDITOR"
	MessageTypeToolbar = "toolbar"
)

type IEditorService interface {
	OpenCreate(ctx context.Context, userId, projectId uuid.UUID) (*dto.EditorSessionResponse, error)
	OpenEdit(ctx context.Context, userId, projectId, blogId uuid.UUID) (*dto.EditorSessionResponse, error)
	Show(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.EditorSessionResponse, error)
	Command(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.EditorCommandRequest) (*dto.EditorSessionResponse, error)
	InsertImage(ctx context.Context, userId uuid.UUID, sessionId string, file tracker.File) (*dto.InsertImageResponse, error)
	Preview(ctx context.Context, sessionId, uploadPath string) (*tracker.File, error)
	PendingImages(ctx context.Context, userId uuid.UUID, sessionId string) ([]dto.PendingImageResponse, error)
	RemovedImages(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.RemovedImagesResponse, error)
	Toolbar(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.ToolbarPositionRequest) (*dto.ToolbarResponse, error)
	Submit(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.SubmitBlogRequest) (*dto.SubmitBlogResponse, error)
	Close(ctx context.Context, userId uuid.UUID, sessionId string) error
	// Authorize checks that userId may watch sessionId over a websocket.
	Authorize(userId uuid.UUID, sessionId string) error
}

// SessionStore keeps open editor sessions.
type SessionStore interface {
	Save(session *store.Session)
	Get(sessionID string) (*store.Session, bool)
	Delete(sessionID string)
	FindByBlog(blogID string) []*store.Session
}

// SessionNotifier pushes messages to the clients watching a session.
type SessionNotifier interface {
	SendToSession(sessionID, msgType string, payload interface{})
}

type EditorServiceDeps struct {
	Config     config.EditorConfig
	MaxImage   int
	Sessions   SessionStore
	UowFactory unitofwork.RepositoryFactory
	Cache      cache.IBlogContentCache
	Storage    IMediaStorage
	Publisher  IPublisherService
	Events     EventPublisher
	Notifier   SessionNotifier
	Logger     logger.ILogger
	Clock      func() time.Time
}

type editorService struct {
	cfg        config.EditorConfig
	maxImage   int
	sessions   SessionStore
	uowFactory unitofwork.RepositoryFactory
	cache      cache.IBlogContentCache
	storage    IMediaStorage
	publisher  IPublisherService
	events     EventPublisher
	notifier   SessionNotifier
	logger     logger.ILogger
	now        func() time.Time
}

func NewEditorService(deps EditorServiceDeps) IEditorService {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	return &editorService{
		cfg:        deps.Config,
		maxImage:   deps.MaxImage,
		sessions:   deps.Sessions,
		uowFactory: deps.UowFactory,
		cache:      deps.Cache,
		storage:    deps.Storage,
		publisher:  deps.Publisher,
		events:     deps.Events,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
}

func (s *editorService) OpenCreate(ctx context.Context, userId, projectId uuid.UUID) (*dto.EditorSessionResponse, error) {
	return s.open(userId, projectId, uuid.New(), editor.ModeCreate, nil)
}

// OpenEdit hydrates a session from the stored blog, preferring the cache.
func (s *editorService) OpenEdit(ctx context.Context, userId, projectId, blogId uuid.UUID) (*dto.EditorSessionResponse, error) {
	content, err := s.cache.Get(ctx, blogId.String())
	if err != nil {
		s.logger.Warn(logModule, "Content cache read failed", map[string]interface{}{
			"blog_id": blogId.String(),
			"error":   err.Error(),
		})
	}

	var markup string
	if content != nil && content.ProjectID == projectId.String() {
		markup = content.Markup
	} else {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		blog, err := uow.BlogRepository().FindOne(ctx,
			specification.ByID{ID: blogId},
			specification.ByProjectID{ProjectID: projectId},
		)
		if err != nil {
			return nil, err
		}
		if blog == nil {
			return nil, ErrBlogNotFound
		}
		markup = blog.Content
		if err := s.cache.Set(ctx, toCachedContent(blog)); err != nil {
			s.logger.Warn(logModule, "Content cache write failed", map[string]interface{}{
				"blog_id": blogId.String(),
				"error":   err.Error(),
			})
		}
	}

	return s.open(userId, projectId, blogId, editor.ModeEdit, &markup)
}

func (s *editorService) open(userId, projectId, blogId uuid.UUID, mode editor.Mode, initial *string) (*dto.EditorSessionResponse, error) {
	minLength := s.cfg.CreateMinLength
	if mode == editor.ModeEdit {
		minLength = s.cfg.EditMinLength
	}

	ed, err := editor.NewSession(editor.Options{
		Mode:             mode,
		InitialMarkup:    initial,
		MinContentLength: minLength,
		Allocator: &imageAllocator{
			storage:   s.storage,
			projectID: projectId.String(),
			blogID:    blogId.String(),
			maxSize:   s.maxImage,
		},
		Logger: s.logger,
		Clock:  s.now,
	})
	if err != nil {
		return nil, err
	}

	sess := &store.Session{
		ID:        uuid.NewString(),
		UserID:    userId.String(),
		ProjectID: projectId.String(),
		BlogID:    blogId.String(),
		Mode:      mode,
		OpenedAt:  s.now(),
		Editor:    ed,
	}
	if s.notifier != nil {
		sessionID := sess.ID
		sess.OnClose(ed.OnSelectionFormatChange(func(st toolbar.FormatState) {
			s.notifier.SendToSession(sessionID, MessageTypeToolbar, st)
		}))
	}
	s.sessions.Save(sess)

	s.logger.Info(logModule, "Editor session opened", map[string]interface{}{
		"session_id": sess.ID,
		"blog_id":    sess.BlogID,
		"mode":       mode,
	})
	return s.view(sess), nil
}

// session returns the session when userId owns it. Sessions of other users
// are reported as missing.
func (s *editorService) session(userId uuid.UUID, sessionId string) (*store.Session, error) {
	sess, ok := s.sessions.Get(sessionId)
	if !ok || !sess.OwnedBy(userId.String()) {
		return nil, store.ErrSessionNotFound
	}
	return sess, nil
}

func (s *editorService) Authorize(userId uuid.UUID, sessionId string) error {
	_, err := s.session(userId, sessionId)
	return err
}

func (s *editorService) view(sess *store.Session) *dto.EditorSessionResponse {
	ed := sess.Editor
	res := &dto.EditorSessionResponse{
		SessionId: sess.ID,
		ProjectId: sess.ProjectID,
		BlogId:    sess.BlogID,
		Mode:      string(sess.CurrentMode()),
		OpenedAt:  sess.OpenedAt,
		Nodes:     []dto.NodeResponse{},
	}

	ed.View(func(tree *document.Tree) {
		tree.Walk(func(n document.Node) bool {
			res.Nodes = append(res.Nodes, nodeResponse(n))
			return true
		})
		res.Selection = selectionResponse(tree.Selection())
		res.CanUndo = tree.CanUndo()
		res.CanRedo = tree.CanRedo()
	})
	res.Markup = ed.Serialize()
	res.Toolbar = ed.ToolbarState()
	res.Pending = pendingResponses(ed.GetPendingImageUploads())
	return res
}

func pendingResponses(images []tracker.PendingImage) []dto.PendingImageResponse {
	out := make([]dto.PendingImageResponse, len(images))
	for i, img := range images {
		out[i] = dto.PendingImageResponse{
			UploadPath:  img.UploadPath,
			FileName:    img.File.Name,
			ContentType: img.File.ContentType,
			Size:        len(img.File.Data),
			IsRemoved:   img.IsRemoved,
		}
	}
	return out
}

func (s *editorService) Show(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.EditorSessionResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *editorService) Command(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.EditorCommandRequest) (*dto.EditorSessionResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := applyCommand(sess.Editor, req); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *editorService) InsertImage(ctx context.Context, userId uuid.UUID, sessionId string, file tracker.File) (*dto.InsertImageResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	key, ref, err := sess.Editor.InsertImage(file)
	if err != nil {
		return nil, err
	}
	return &dto.InsertImageResponse{
		NodeKey:    int(key),
		DisplayURL: ref.DisplayURL,
		UploadPath: ref.UploadPath,
	}, nil
}

// Preview serves the bytes of a pending image. Session ids are random, so
// the id alone grants access; image tags cannot send a bearer token.
func (s *editorService) Preview(ctx context.Context, sessionId, uploadPath string) (*tracker.File, error) {
	sess, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	img, ok := sess.Editor.PendingImage(uploadPath)
	if !ok {
		return nil, ErrPendingNotFound
	}
	return &img.File, nil
}

func (s *editorService) PendingImages(ctx context.Context, userId uuid.UUID, sessionId string) ([]dto.PendingImageResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	return pendingResponses(sess.Editor.GetPendingImageUploads()), nil
}

func (s *editorService) RemovedImages(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.RemovedImagesResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	paths := sess.Editor.GetRemovedImagePaths()
	if paths == nil {
		paths = []string{}
	}
	return &dto.RemovedImagesResponse{Paths: paths}, nil
}

func toRect(r *dto.RectRequest) *toolbar.Rect {
	if r == nil {
		return nil
	}
	return &toolbar.Rect{Top: r.Top, Left: r.Left, Width: r.Width, Height: r.Height}
}

func (s *editorService) Toolbar(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.ToolbarPositionRequest) (*dto.ToolbarResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	placement := sess.Editor.ToolbarPosition(toolbar.Geometry{
		Target:   toRect(req.Target),
		Floating: *toRect(&req.Floating),
		Anchor:   *toRect(&req.Anchor),
		Scroller: toRect(req.Scroller),
	})
	return &dto.ToolbarResponse{
		State:   sess.Editor.ToolbarState(),
		Top:     placement.Top,
		Left:    placement.Left,
		Opacity: placement.Opacity,
		FadeMs:  toolbar.FadeDuration.Milliseconds(),
	}, nil
}

func (s *editorService) Submit(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.SubmitBlogRequest) (*dto.SubmitBlogResponse, error) {
	sess, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	mode := sess.CurrentMode()
	if mode == editor.ModeCreate {
		if err := serverutils.ValidateRequest(dto.CreateBlogMetadata{Title: req.Title}); err != nil {
			return nil, err
		}
	}

	w := &blogWriter{
		uowFactory: s.uowFactory,
		storage:    s.storage,
		publisher:  s.publisher,
		cache:      s.cache,
		events:     s.events,
		logger:     s.logger,
		now:        s.now,
		sessionID:  sess.ID,
		userID:     userId,
		mode:       mode,
		meta:       *req,
		removed:    len(sess.Editor.GetRemovedImagePaths()),
	}

	res, err := sess.Editor.Submit(ctx, w, sess.ProjectID, sess.BlogID)
	if err != nil {
		return nil, err
	}
	// The first save created the blog; later ones update it.
	if sess.MarkSaved() {
		sess.Editor.Promote(s.cfg.EditMinLength)
	}

	blogId, _ := uuid.Parse(sess.BlogID)
	return &dto.SubmitBlogResponse{
		BlogId:   blogId,
		Mode:     string(sess.CurrentMode()),
		Markup:   res.Markup,
		Uploaded: res.Uploaded,
		Removed:  res.Removed,
	}, nil
}

func (s *editorService) Close(ctx context.Context, userId uuid.UUID, sessionId string) error {
	if _, err := s.session(userId, sessionId); err != nil {
		return err
	}
	s.sessions.Delete(sessionId)
	s.logger.Info(logModule, "Editor session closed", map[string]interface{}{"session_id": sessionId})
	return nil
}

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// imageAllocator names new images of one blog. Display URLs point at where
// the file will be served once uploaded.
type imageAllocator struct {
	storage   IMediaStorage
	projectID string
	blogID    string
	maxSize   int
}

func (a *imageAllocator) Allocate(file tracker.File) (editor.ImageRef, error) {
	contentType := file.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(file.Data)
	}
	contentType, _, _ = mime.ParseMediaType(contentType)

	ext, ok := imageTypes[contentType]
	if !ok {
		return editor.ImageRef{}, fmt.Errorf("%w: %s", ErrInvalidImage, contentType)
	}
	if a.maxSize > 0 && len(file.Data) > a.maxSize {
		return editor.ImageRef{}, fmt.Errorf("%w: %d bytes, limit %d", ErrImageTooLarge, len(file.Data), a.maxSize)
	}
	if e := strings.ToLower(filepath.Ext(file.Name)); e == ".jpeg" || e == ext {
		ext = e
	}

	uploadPath := uuid.NewString() + ext
	return editor.ImageRef{
		DisplayURL: a.storage.URL(a.projectID, a.blogID, uploadPath),
		UploadPath: uploadPath,
	}, nil
}
