package document

import "time"

const (
	// MaxHistory bounds the undo stack.
	MaxHistory = 100
	// MaxHistoryNodes bounds the nodes held across all undo steps, so long
	// documents keep fewer steps.
	MaxHistoryNodes = 200_000
	// MergeInterval is the window in which consecutive typing coalesces into one undo step.
	MergeInterval = time.Second

	tagInsertText = "insert-text"
	tagDelete     = "delete-character"
)

type history struct {
	undo    []*snapshot
	redo    []*snapshot
	lastTag string
	lastAt  time.Time
}

func (h *history) record(before *snapshot, tag string, at time.Time) {
	h.redo = nil
	if tag != "" && tag == h.lastTag && at.Sub(h.lastAt) < MergeInterval && len(h.undo) > 0 {
		h.lastAt = at
		return
	}
	h.undo = append(h.undo, before)
	if len(h.undo) > MaxHistory {
		h.undo = h.undo[len(h.undo)-MaxHistory:]
	}
	h.trim()
	h.lastTag = tag
	h.lastAt = at
}

// trim drops the oldest undo steps while they hold more than
// MaxHistoryNodes nodes. The newest step is always kept.
func (h *history) trim() {
	total := 0
	for _, s := range h.undo {
		total += len(s.nodes)
	}
	drop := 0
	for total > MaxHistoryNodes && drop < len(h.undo)-1 {
		total -= len(h.undo[drop].nodes)
		drop++
	}
	if drop > 0 {
		h.undo = append([]*snapshot(nil), h.undo[drop:]...)
	}
}

func (h *history) reset() {
	h.lastTag = ""
}

// CanUndo reports whether an undo step is available.
func (t *Tree) CanUndo() bool {
	return len(t.history.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (t *Tree) CanRedo() bool {
	return len(t.history.redo) > 0
}

// Undo restores the state before the last recorded batch. Nodes come back
// under their original keys, so listeners see them created again.
func (t *Tree) Undo() bool {
	if t.depth > 0 || len(t.history.undo) == 0 {
		return false
	}
	prev := t.history.undo[len(t.history.undo)-1]
	t.history.undo = t.history.undo[:len(t.history.undo)-1]
	t.history.redo = append(t.history.redo, t.snapshot())
	t.applySnapshot(prev)
	return true
}

// Redo reapplies the last undone batch.
func (t *Tree) Redo() bool {
	if t.depth > 0 || len(t.history.redo) == 0 {
		return false
	}
	next := t.history.redo[len(t.history.redo)-1]
	t.history.redo = t.history.redo[:len(t.history.redo)-1]
	t.history.undo = append(t.history.undo, t.snapshot())
	t.applySnapshot(next)
	return true
}

// ClearHistory drops every undo and redo step.
func (t *Tree) ClearHistory() {
	t.history = history{}
}

func (t *Tree) applySnapshot(s *snapshot) {
	before := t.snapshot()
	t.depth++
	t.restore(s)
	t.dirty = true
	t.selDirty = true
	t.skipHistory = true
	t.depth--
	t.commit(before)
	t.skipHistory = false
	t.history.reset()
}
