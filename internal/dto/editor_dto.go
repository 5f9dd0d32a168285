package dto

import (
	"time"

	"blog-editor-be/pkg/toolbar"

	"github.com/google/uuid"
)

type OpenEditorRequest struct {
	ProjectId uuid.UUID `json:"project_id" validate:"required"`
	// BlogId opens an edit session; without it a new blog is created.
	BlogId *uuid.UUID `json:"blog_id"`
}

// PointRequest addresses one end of a selection. Type is "text" (character
// offset) or "element" (child offset).
type PointRequest struct {
	Key    int    `json:"key" validate:"required,min=1"`
	Offset int    `json:"offset" validate:"min=0"`
	Type   string `json:"type" validate:"omitempty,oneof=text element"`
}

// EditorCommandRequest is one editing operation. Which fields are read
// depends on Type.
type EditorCommandRequest struct {
	Type string `json:"type" validate:"required,oneof=type_text insert_text backspace delete enter line_break format link toolbar_link toolbar_button block_type indent outdent select select_all select_image move_caret compose focus undo redo paste_markup paste_markdown"`

	Text      string        `json:"text"`
	Format    string        `json:"format" validate:"omitempty,oneof=bold italic underline strikethrough code subscript superscript"`
	URL       string        `json:"url"`
	Button    string        `json:"button" validate:"omitempty,oneof=bold italic underline link"`
	Block     string        `json:"block" validate:"omitempty,oneof=paragraph h1 h2 h3 h4 h5 h6 quote code bullet number"`
	Language  string        `json:"language"`
	Anchor    *PointRequest `json:"anchor"`
	Focus     *PointRequest `json:"focus"`
	NodeKey   int           `json:"node_key"`
	Extend    bool          `json:"extend"`
	Backward  bool          `json:"backward"`
	Composing bool          `json:"composing"`
	InEditor  bool          `json:"in_editor"`
}

type NodeResponse struct {
	Key      int    `json:"key"`
	Kind     string `json:"kind"`
	Parent   int    `json:"parent"`
	Children []int  `json:"children,omitempty"`
	Text     string `json:"text,omitempty"`
	Format   int    `json:"format,omitempty"`
	Level    int    `json:"level,omitempty"`
	ListType string `json:"list_type,omitempty"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
	Src      string `json:"src,omitempty"`
	Path     string `json:"path,omitempty"`
	Width    string `json:"width,omitempty"`
	Height   string `json:"height,omitempty"`
}

type SelectionResponse struct {
	Type   string        `json:"type"` // range | node
	Anchor *PointRequest `json:"anchor,omitempty"`
	Focus  *PointRequest `json:"focus,omitempty"`
	Keys   []int         `json:"keys,omitempty"`
}

type EditorSessionResponse struct {
	SessionId string                 `json:"session_id"`
	ProjectId string                 `json:"project_id"`
	BlogId    string                 `json:"blog_id"`
	Mode      string                 `json:"mode"`
	Markup    string                 `json:"markup"`
	Nodes     []NodeResponse         `json:"nodes"`
	Selection *SelectionResponse     `json:"selection,omitempty"`
	Toolbar   toolbar.FormatState    `json:"toolbar"`
	CanUndo   bool                   `json:"can_undo"`
	CanRedo   bool                   `json:"can_redo"`
	OpenedAt  time.Time              `json:"opened_at"`
	Pending   []PendingImageResponse `json:"pending_images"`
}

type PendingImageResponse struct {
	UploadPath  string `json:"upload_path"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	IsRemoved   bool   `json:"is_removed"`
}

type InsertImageResponse struct {
	NodeKey    int    `json:"node_key"`
	DisplayURL string `json:"display_url"`
	UploadPath string `json:"upload_path"`
}

type RemovedImagesResponse struct {
	Paths []string `json:"paths"`
}

type RectRequest struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToolbarPositionRequest carries the client's layout measurements. Target
// and Scroller are null when the native selection has no rectangle or the
// editor has no scroll container.
type ToolbarPositionRequest struct {
	Target   *RectRequest `json:"target"`
	Floating RectRequest  `json:"floating"`
	Anchor   RectRequest  `json:"anchor"`
	Scroller *RectRequest `json:"scroller"`
}

type ToolbarResponse struct {
	State   toolbar.FormatState `json:"state"`
	Top     float64             `json:"top"`
	Left    float64             `json:"left"`
	Opacity float64             `json:"opacity"`
	FadeMs  int64               `json:"fade_ms"`
}

type SubmitBlogRequest struct {
	Title    string `json:"title" validate:"omitempty,min=3,max=255"`
	Author   string `json:"author" validate:"omitempty,min=3,max=255"`
	Summary  string `json:"summary" validate:"omitempty,min=10"`
	Category string `json:"category" validate:"omitempty,max=100"`
}

// CreateBlogMetadata is the stricter check applied on the first save.
type CreateBlogMetadata struct {
	Title string `validate:"required,min=3,max=255"`
}

type SubmitBlogResponse struct {
	BlogId   uuid.UUID `json:"blog_id"`
	Mode     string    `json:"mode"`
	Markup   string    `json:"markup"`
	Uploaded []string  `json:"uploaded"`
	Removed  []string  `json:"removed"`
}
