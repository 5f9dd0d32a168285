// Package tracker follows the image nodes of a document tree and keeps the
// upload and deletion work a session owes the media store.
package tracker

import (
	"sync"

	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/document"
)

const logModule = "TRACKER"

// File is the binary content of an image chosen by the user.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// PendingImage is an image inserted during the session whose bytes have not
// been uploaded yet. Entries are never dropped; IsRemoved reflects whether the
// image is currently absent from the tree.
type PendingImage struct {
	UploadPath string
	File       File
	IsRemoved  bool
}

// Tracker maintains the pending uploads and the removed persisted paths of one
// session as a side effect of tree mutations.
type Tracker struct {
	mu     sync.Mutex
	logger logger.ILogger

	pending   []*PendingImage
	byPath    map[string]*PendingImage
	keyPaths  map[document.NodeKey]string
	refs      map[string]int
	persisted map[string]bool
	removed   []string

	unsubscribe func()
}

// New attaches a tracker to tree. Images already in the tree are counted but
// are not persisted until MarkPersisted is called.
func New(tree *document.Tree, log logger.ILogger) *Tracker {
	t := &Tracker{
		logger:    log,
		byPath:    make(map[string]*PendingImage),
		keyPaths:  make(map[document.NodeKey]string),
		refs:      make(map[string]int),
		persisted: make(map[string]bool),
	}
	for _, img := range tree.NodesOfKind(document.KindImage) {
		t.keyPaths[img.Key] = img.Path
		t.refs[img.Path]++
	}
	t.unsubscribe = tree.RegisterMutationListener(document.KindImage, func(ms []document.Mutation) {
		t.apply(tree, ms)
	})
	return t
}

func (t *Tracker) apply(tree *document.Tree, ms []document.Mutation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range ms {
		switch m.Type {
		case document.MutationCreated:
			n, ok := tree.Node(m.Key)
			if !ok {
				continue
			}
			t.created(m.Key, n.Path)
		case document.MutationDestroyed:
			t.destroyed(m.Key)
		}
	}
}

func (t *Tracker) created(key document.NodeKey, path string) {
	if path == "" {
		return
	}
	t.keyPaths[key] = path
	t.refs[path]++

	if p, ok := t.byPath[path]; ok {
		p.IsRemoved = false
		return
	}
	t.removed = without(t.removed, path)
}

func (t *Tracker) destroyed(key document.NodeKey) {
	path, ok := t.keyPaths[key]
	if !ok {
		t.logger.Debug(logModule, "Destroyed image was never tracked", map[string]interface{}{
			"node_key": key,
		})
		return
	}
	if t.refs[path] > 0 {
		t.refs[path]--
	}
	live := t.refs[path] > 0

	if p, ok := t.byPath[path]; ok {
		p.IsRemoved = !live
		return
	}
	if t.persisted[path] && !live && !contains(t.removed, path) {
		t.removed = append(t.removed, path)
	}
}

// AddPending registers the file behind an image about to be inserted. It must
// be called before the node is inserted so the creation is attributed to it.
func (t *Tracker) AddPending(path string, file File) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.byPath[path]; ok {
		p.File = file
		return
	}
	p := &PendingImage{UploadPath: path, File: file, IsRemoved: t.refs[path] == 0}
	t.pending = append(t.pending, p)
	t.byPath[path] = p
}

// DropPending forgets a pending entry whose image never made it into the
// tree. Entries still referenced by a node are kept.
func (t *Tracker) DropPending(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.byPath[path]
	if !ok || t.refs[path] > 0 {
		return
	}
	delete(t.byPath, path)
	for i, q := range t.pending {
		if q == p {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			break
		}
	}
}

// PendingUploads returns the pending images currently present in the tree, in
// insertion order.
func (t *Tracker) PendingUploads() []PendingImage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]PendingImage, 0, len(t.pending))
	for _, p := range t.pending {
		if !p.IsRemoved {
			out = append(out, *p)
		}
	}
	return out
}

// Pending returns the entry for path, removed or not.
func (t *Tracker) Pending(path string) (PendingImage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.byPath[path]
	if !ok {
		return PendingImage{}, false
	}
	return *p, true
}

// RemovedPaths returns the persisted paths no longer referenced by the tree.
func (t *Tracker) RemovedPaths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string{}, t.removed...)
}

// MarkPersisted records every image path currently in the tree as persisted.
func (t *Tracker) MarkPersisted() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for path, n := range t.refs {
		if n > 0 {
			t.persisted[path] = true
		}
	}
}

// CommitUploaded moves uploaded paths from pending to persisted.
func (t *Tracker) CommitUploaded(paths []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, path := range paths {
		p, ok := t.byPath[path]
		if !ok {
			continue
		}
		delete(t.byPath, path)
		for i, q := range t.pending {
			if q == p {
				t.pending = append(t.pending[:i], t.pending[i+1:]...)
				break
			}
		}
		t.persisted[path] = true
		if t.refs[path] == 0 && !contains(t.removed, path) {
			t.removed = append(t.removed, path)
		}
	}
}

// CommitRemoved forgets paths whose deletion has been dispatched.
func (t *Tracker) CommitRemoved(paths []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, path := range paths {
		if t.refs[path] > 0 {
			continue
		}
		t.removed = without(t.removed, path)
		delete(t.persisted, path)
	}
}

// Close stops tracking and drops the session state.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
	t.pending = nil
	t.byPath = make(map[string]*PendingImage)
	t.keyPaths = make(map[document.NodeKey]string)
	t.refs = make(map[string]int)
	t.persisted = make(map[string]bool)
	t.removed = nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
