package service

import (
	"errors"
	"fmt"
	"strconv"

	"blog-editor-be/internal/dto"
	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/editor"
	"blog-editor-be/pkg/toolbar"
)

var textFormats = map[string]document.TextFormat{
	"bold":          document.FormatBold,
	"italic":        document.FormatItalic,
	"underline":     document.FormatUnderline,
	"strikethrough": document.FormatStrikethrough,
	"code":          document.FormatCode,
	"subscript":     document.FormatSubscript,
	"superscript":   document.FormatSuperscript,
}

func toPoint(p *dto.PointRequest) (document.Point, error) {
	if p == nil {
		return document.Point{}, ErrInvalidSelection
	}
	if p.Type == "element" {
		return document.ElementPoint(document.NodeKey(p.Key), p.Offset), nil
	}
	return document.TextPoint(document.NodeKey(p.Key), p.Offset), nil
}

func blockType(block, language string) (document.Kind, document.Attrs, error) {
	switch block {
	case "paragraph":
		return document.KindParagraph, document.Attrs{}, nil
	case "quote":
		return document.KindQuote, document.Attrs{}, nil
	case "code":
		return document.KindCode, document.Attrs{Language: language}, nil
	case "bullet":
		return document.KindList, document.Attrs{ListType: document.ListBullet, Start: 1}, nil
	case "number":
		return document.KindList, document.Attrs{ListType: document.ListNumber, Start: 1}, nil
	}
	if len(block) == 2 && block[0] == 'h' {
		if level, err := strconv.Atoi(block[1:]); err == nil && level >= 1 && level <= document.MaxHeadingLevel {
			return document.KindHeading, document.Attrs{Level: level}, nil
		}
	}
	return "", document.Attrs{}, fmt.Errorf("%w: block %q", ErrUnknownCommand, block)
}

// applyCommand runs one editing command against the session.
func applyCommand(ed *editor.Session, req *dto.EditorCommandRequest) error {
	switch req.Type {
	case "type_text":
		return ed.TypeText(req.Text)
	case "insert_text":
		return ed.InsertText(req.Text)
	case "backspace":
		return ed.Backspace()
	case "delete":
		return ed.Delete()
	case "enter":
		return ed.Enter()
	case "line_break":
		return ed.LineBreak()
	case "format":
		flag, ok := textFormats[req.Format]
		if !ok {
			return fmt.Errorf("%w: format %q", ErrUnknownCommand, req.Format)
		}
		return ed.Format(flag)
	case "link":
		return ed.ToggleLink(req.URL)
	case "toolbar_link":
		return ed.ToolbarLink()
	case "toolbar_button":
		err := ed.ToolbarPress(toolbar.Button(req.Button))
		if errors.Is(err, toolbar.ErrUnknownButton) {
			return fmt.Errorf("%w: %v", ErrUnknownCommand, err)
		}
		return err
	case "block_type":
		kind, attrs, err := blockType(req.Block, req.Language)
		if err != nil {
			return err
		}
		return ed.SetBlockType(kind, attrs)
	case "indent":
		return ed.Indent()
	case "outdent":
		return ed.Outdent()
	case "select":
		anchor, err := toPoint(req.Anchor)
		if err != nil {
			return err
		}
		focus := anchor
		if req.Focus != nil {
			if focus, err = toPoint(req.Focus); err != nil {
				return err
			}
		}
		return ed.Select(anchor, focus)
	case "select_all":
		return ed.SelectAll()
	case "select_image":
		return ed.SelectImage(document.NodeKey(req.NodeKey), req.Extend)
	case "move_caret":
		return ed.MoveCaret(req.Backward)
	case "compose":
		return ed.SetComposing(req.Composing)
	case "focus":
		ed.SetFocus(req.InEditor)
		return nil
	case "undo":
		_, err := ed.Undo()
		return err
	case "redo":
		_, err := ed.Redo()
		return err
	case "paste_markup":
		return ed.PasteMarkup(req.Text)
	case "paste_markdown":
		return ed.PasteMarkdown(req.Text)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, req.Type)
}

func nodeResponse(n document.Node) dto.NodeResponse {
	out := dto.NodeResponse{
		Key:    int(n.Key),
		Kind:   string(n.Kind),
		Parent: int(n.Parent),
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, int(c))
	}
	switch n.Kind {
	case document.KindText:
		out.Text = n.Text
		out.Format = int(n.Format)
	case document.KindHeading:
		out.Level = n.Level
	case document.KindList:
		out.ListType = string(n.ListType)
	case document.KindCode:
		out.Language = n.Language
	case document.KindLink:
		out.URL = n.URL
	case document.KindImage:
		out.Src = n.Src
		out.Path = n.Path
		out.Width = n.Width
		out.Height = n.Height
	}
	return out
}

func pointResponse(p document.Point) *dto.PointRequest {
	typ := "text"
	if p.Type == document.PointElement {
		typ = "element"
	}
	return &dto.PointRequest{Key: int(p.Key), Offset: p.Offset, Type: typ}
}

func selectionResponse(sel document.Selection) *dto.SelectionResponse {
	switch s := sel.(type) {
	case *document.RangeSelection:
		return &dto.SelectionResponse{
			Type:   "range",
			Anchor: pointResponse(s.Anchor),
			Focus:  pointResponse(s.Focus),
		}
	case *document.NodeSelection:
		keys := make([]int, len(s.Keys))
		for i, k := range s.Keys {
			keys[i] = int(k)
		}
		return &dto.SelectionResponse{Type: "node", Keys: keys}
	}
	return nil
}
