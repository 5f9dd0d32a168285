// Package editor ties a document tree, its image tracker and the floating
// toolbar into one editing session with a create and an edit workflow.
package editor

import (
	"sync"
	"sync/atomic"
	"time"

	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/lexical"
	"blog-editor-be/pkg/markup"
	"blog-editor-be/pkg/toolbar"
	"blog-editor-be/pkg/tracker"
)

const logModule = "EDITOR"

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

const (
	DefaultCreateMinLength = 50
	DefaultEditMinLength   = 200
)

// ImageRef is where a freshly chosen image is shown and where it will live
// once uploaded.
type ImageRef struct {
	DisplayURL string
	UploadPath string
}

// ImageAllocator hands out an ImageRef for each image inserted by the user.
type ImageAllocator interface {
	Allocate(file tracker.File) (ImageRef, error)
}

type Options struct {
	Mode Mode
	// InitialMarkup is the stored document of an edit session.
	InitialMarkup    *string
	MinContentLength int
	Allocator        ImageAllocator
	Logger           logger.ILogger
	Clock            func() time.Time
}

// Session is one open editing interaction. Editing operations are serialized
// by the session; a submit runs outside the lock so editing stays possible.
type Session struct {
	mu     sync.Mutex
	closed bool

	mode      Mode
	minLength int
	allocator ImageAllocator
	logger    logger.ILogger

	tree    *document.Tree
	tracker *tracker.Tracker
	toolbar *toolbar.Toolbar

	submitting atomic.Bool
	deletions  sync.WaitGroup
}

// NewSession starts a session. With InitialMarkup the tree is hydrated once
// and every image in it counts as persisted.
func NewSession(opts Options) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = ModeCreate
		if opts.InitialMarkup != nil {
			opts.Mode = ModeEdit
		}
	}
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultCreateMinLength
		if opts.Mode == ModeEdit {
			opts.MinContentLength = DefaultEditMinLength
		}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}

	tree := document.New()
	if opts.Clock != nil {
		tree.SetClock(opts.Clock)
	}
	s := &Session{
		mode:      opts.Mode,
		minLength: opts.MinContentLength,
		allocator: opts.Allocator,
		logger:    opts.Logger,
		tree:      tree,
		tracker:   tracker.New(tree, opts.Logger),
	}
	if opts.InitialMarkup != nil {
		if err := markup.Hydrate(tree, *opts.InitialMarkup); err != nil {
			s.tracker.Close()
			return nil, err
		}
		s.tracker.MarkPersisted()
	}
	s.toolbar = toolbar.New(tree)
	return s, nil
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Promote turns a create session into an edit session once its document has
// been stored, so later submits use the edit minimum length.
func (s *Session) Promote(minLength int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = ModeEdit
	if minLength > 0 {
		s.minLength = minLength
	}
}

// Tree exposes the document for read access. Callers must not edit it
// directly while the session is in use.
func (s *Session) Tree() *document.Tree {
	return s.tree
}

func (s *Session) Toolbar() *toolbar.Toolbar {
	return s.toolbar
}

// View runs fn with the session locked so the tree can be read consistently.
func (s *Session) View(fn func(tree *document.Tree)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tree)
}

// Serialize returns the current markup.
func (s *Session) Serialize() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markup.Export(s.tree)
}

func (s *Session) SerializeJSON() lexical.LexicalRoot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ToJSON()
}

// GetPendingImageUploads lists the new images currently in the document.
func (s *Session) GetPendingImageUploads() []tracker.PendingImage {
	return s.tracker.PendingUploads()
}

// PendingImage returns a pending image by path, including removed ones, so a
// preview can still be served while undo may bring it back.
func (s *Session) PendingImage(path string) (tracker.PendingImage, bool) {
	return s.tracker.Pending(path)
}

// GetRemovedImagePaths lists the persisted images no longer in the document.
func (s *Session) GetRemovedImagePaths() []string {
	return s.tracker.RemovedPaths()
}

// OnSelectionFormatChange calls fn whenever the toolbar state changes. The
// callback runs while the session is locked and must not call back into it.
func (s *Session) OnSelectionFormatChange(fn func(toolbar.FormatState)) func() {
	return s.toolbar.OnChange(fn)
}

func (s *Session) ToolbarState() toolbar.FormatState {
	return s.toolbar.State()
}

// SetFocus records whether the native selection is inside the editor.
func (s *Session) SetFocus(inEditor bool) toolbar.FormatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolbar.SetFocus(inEditor)
}

// ToolbarPosition recomputes the toolbar placement after a resize or scroll.
func (s *Session) ToolbarPosition(g toolbar.Geometry) toolbar.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toolbar.Refresh()
	return s.toolbar.Position(g)
}

// edit runs one editing operation. Rejected structural edits leave the tree
// untouched and are only logged.
func (s *Session) edit(op string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	err := fn()
	if document.IsInvariantViolation(err) {
		s.logger.Warn(logModule, "Editing operation rejected", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return nil
	}
	return err
}

// TypeText inserts text one character at a time, applying markdown shortcuts
// after each one.
func (s *Session) TypeText(text string) error {
	return s.edit("type_text", func() error {
		for _, r := range text {
			if err := s.tree.InsertText(string(r)); err != nil {
				return err
			}
			if !s.tree.IsComposing() {
				markup.ApplyShortcuts(s.tree)
			}
		}
		return nil
	})
}

// InsertText inserts text as is, without shortcuts.
func (s *Session) InsertText(text string) error {
	return s.edit("insert_text", func() error {
		return s.tree.InsertText(text)
	})
}

func (s *Session) Backspace() error {
	return s.edit("backspace", func() error {
		return s.tree.DeleteCharacter(true)
	})
}

func (s *Session) Delete() error {
	return s.edit("delete", func() error {
		return s.tree.DeleteCharacter(false)
	})
}

func (s *Session) Enter() error {
	return s.edit("enter", func() error {
		return s.tree.InsertParagraph()
	})
}

func (s *Session) LineBreak() error {
	return s.edit("line_break", func() error {
		return s.tree.InsertLineBreak()
	})
}

func (s *Session) Format(flag document.TextFormat) error {
	return s.edit("format", func() error {
		return s.tree.FormatText(flag)
	})
}

// ToggleLink links the selection to url, or unlinks it when url is empty.
func (s *Session) ToggleLink(url string) error {
	return s.edit("toggle_link", func() error {
		return s.tree.ToggleLink(url)
	})
}

// ToolbarLink is the link button of the floating toolbar.
func (s *Session) ToolbarLink() error {
	return s.ToolbarPress(toolbar.ButtonLink)
}

// ToolbarPress applies a floating toolbar button.
func (s *Session) ToolbarPress(b toolbar.Button) error {
	return s.edit("toolbar_"+string(b), func() error {
		return s.toolbar.Press(b)
	})
}

func (s *Session) SetBlockType(kind document.Kind, attrs document.Attrs) error {
	return s.edit("set_block_type", func() error {
		return s.tree.SetBlockType(kind, attrs)
	})
}

// Indent nests the selected list items one level deeper.
func (s *Session) Indent() error {
	return s.edit("indent", s.tree.Indent)
}

func (s *Session) Outdent() error {
	return s.edit("outdent", s.tree.Outdent)
}

func (s *Session) Select(anchor, focus document.Point) error {
	return s.edit("select", func() error {
		return s.tree.Select(anchor, focus)
	})
}

func (s *Session) SelectAll() error {
	return s.edit("select_all", s.tree.SelectAll)
}

// SelectImage selects an image, toggling it into the selection with extend.
func (s *Session) SelectImage(key document.NodeKey, extend bool) error {
	return s.edit("select_image", func() error {
		return s.tree.SelectNode(key, extend)
	})
}

func (s *Session) MoveCaret(backward bool) error {
	return s.edit("move_caret", func() error {
		return s.tree.MoveCaret(backward)
	})
}

func (s *Session) SetComposing(composing bool) error {
	return s.edit("set_composing", func() error {
		s.tree.SetComposing(composing)
		return nil
	})
}

// Undo reports whether there was a step to undo.
func (s *Session) Undo() (bool, error) {
	var ok bool
	err := s.edit("undo", func() error {
		ok = s.tree.Undo()
		return nil
	})
	return ok, err
}

func (s *Session) Redo() (bool, error) {
	var ok bool
	err := s.edit("redo", func() error {
		ok = s.tree.Redo()
		return nil
	})
	return ok, err
}

// PasteMarkup imports markup at the selection as one undo step.
func (s *Session) PasteMarkup(source string) error {
	return s.edit("paste_markup", func() error {
		return s.paste(source)
	})
}

// PasteMarkdown renders markdown and pastes the result.
func (s *Session) PasteMarkdown(source string) error {
	return s.edit("paste_markdown", func() error {
		html, err := markup.RenderMarkdown(source)
		if err != nil {
			return err
		}
		return s.paste(html)
	})
}

func (s *Session) paste(source string) error {
	return s.tree.Update(func() error {
		keys, err := markup.Import(s.tree, source)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		return s.tree.InsertNodes(keys...)
	})
}

// InsertImage allocates a reference for file, registers it as pending and
// inserts the image at the selection. When the selection cannot hold an
// image, as inside a code block, nothing is kept and ErrImageNotInserted is
// returned.
func (s *Session) InsertImage(file tracker.File) (document.NodeKey, ImageRef, error) {
	if s.allocator == nil {
		return 0, ImageRef{}, ErrNoAllocator
	}
	ref, err := s.allocator.Allocate(file)
	if err != nil {
		return 0, ImageRef{}, err
	}

	var (
		key      document.NodeKey
		attached bool
	)
	err = s.edit("insert_image", func() error {
		s.tracker.AddPending(ref.UploadPath, file)
		k, err := s.tree.InsertImage(ref.DisplayURL, ref.UploadPath, "", "")
		attached = err == nil && s.tree.IsAttached(k)
		if !attached {
			s.tracker.DropPending(ref.UploadPath)
		}
		key = k
		return err
	})
	if err != nil {
		return 0, ImageRef{}, err
	}
	if !attached {
		return 0, ImageRef{}, ErrImageNotInserted
	}
	s.logger.Debug(logModule, "Image inserted", map[string]interface{}{
		"upload_path": ref.UploadPath,
		"size":        len(file.Data),
	})
	return key, ref, nil
}

// Wait blocks until dispatched media deletions have finished.
func (s *Session) Wait() {
	s.deletions.Wait()
}

// Close ends the session. Deletions already dispatched keep running.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.toolbar.Close()
	s.tracker.Close()
}
