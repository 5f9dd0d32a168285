package editor

import (
	"context"
	"unicode/utf8"

	"blog-editor-be/pkg/lexical"
	"blog-editor-be/pkg/markup"
	"blog-editor-be/pkg/tracker"
)

// Document is what gets saved: the markup plus a JSON snapshot of the tree.
type Document struct {
	Markup string
	JSON   lexical.LexicalRoot
}

// Persistence stores media and documents for a submit.
type Persistence interface {
	UploadMedia(ctx context.Context, projectID, docID string, images []tracker.PendingImage) error
	DeleteMedia(ctx context.Context, projectID, docID string, paths []string) error
	SaveDocument(ctx context.Context, projectID, docID string, doc Document) error
}

type SubmitResult struct {
	Markup   string
	Uploaded []string
	Removed  []string
}

// Submit uploads new images, dispatches deletion of removed ones and saves
// the document, in that order. Deletion runs in the background and its
// failure is only logged.
func (s *Session) Submit(ctx context.Context, p Persistence, projectID, docID string) (*SubmitResult, error) {
	if !s.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer s.submitting.Store(false)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	doc := Document{Markup: markup.Export(s.tree), JSON: s.tree.ToJSON()}
	pending := s.tracker.PendingUploads()
	removed := s.tracker.RemovedPaths()
	mode, minLength := s.mode, s.minLength
	s.mu.Unlock()

	if n := utf8.RuneCountInString(doc.Markup); n < minLength {
		return nil, &ContentTooShortError{Length: n, Min: minLength}
	}

	details := map[string]interface{}{
		"project_id": projectID,
		"doc_id":     docID,
		"mode":       mode,
	}
	result := &SubmitResult{Markup: doc.Markup, Uploaded: []string{}, Removed: []string{}}

	if len(pending) > 0 {
		paths := make([]string, len(pending))
		for i, img := range pending {
			paths[i] = img.UploadPath
		}
		if err := p.UploadMedia(ctx, projectID, docID, pending); err != nil {
			s.logger.Error("SUBMIT", "Media upload failed", map[string]interface{}{
				"doc_id": docID,
				"paths":  paths,
				"error":  err.Error(),
			})
			return nil, &UploadFailureError{Paths: paths, Err: err}
		}
		s.tracker.CommitUploaded(paths)
		result.Uploaded = paths
	}

	if len(removed) > 0 {
		s.deletions.Add(1)
		go func(paths []string) {
			defer s.deletions.Done()
			if err := p.DeleteMedia(context.WithoutCancel(ctx), projectID, docID, paths); err != nil {
				s.logger.Warn("SUBMIT", "Media deletion failed", map[string]interface{}{
					"doc_id": docID,
					"paths":  paths,
					"error":  err.Error(),
				})
			}
		}(removed)
		s.tracker.CommitRemoved(removed)
		result.Removed = removed
	}

	if err := p.SaveDocument(ctx, projectID, docID, doc); err != nil {
		s.logger.Error("SUBMIT", "Document save failed", map[string]interface{}{
			"doc_id": docID,
			"error":  err.Error(),
		})
		return nil, &SaveFailureError{Err: err}
	}

	details["uploaded"] = len(result.Uploaded)
	details["removed"] = len(result.Removed)
	s.logger.Info("SUBMIT", "Document submitted", details)
	return result, nil
}
