package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/markup"
)

func paths(images []PendingImage) []string {
	out := []string{}
	for _, img := range images {
		out = append(out, img.UploadPath)
	}
	return out
}

func insert(t *testing.T, tree *document.Tree, tr *Tracker, path string) document.NodeKey {
	t.Helper()
	tr.AddPending(path, File{Name: path, ContentType: "image/png", Data: []byte(path)})
	key, err := tree.InsertImage("blob:"+path, path, "", "")
	require.NoError(t, err)
	return key
}

func TestPendingFollowsTree(t *testing.T) {
	tests := []struct {
		name  string
		steps func(t *testing.T, tree *document.Tree, tr *Tracker)
		want  []string
	}{
		{
			name: "insert",
			steps: func(t *testing.T, tree *document.Tree, tr *Tracker) {
				insert(t, tree, tr, "img-1")
			},
			want: []string{"img-1"},
		},
		{
			name: "insert then delete",
			steps: func(t *testing.T, tree *document.Tree, tr *Tracker) {
				k := insert(t, tree, tr, "img-1")
				require.NoError(t, tree.RemoveNode(k))
			},
			want: []string{},
		},
		{
			name: "delete then undo",
			steps: func(t *testing.T, tree *document.Tree, tr *Tracker) {
				k := insert(t, tree, tr, "img-1")
				require.NoError(t, tree.RemoveNode(k))
				require.True(t, tree.Undo())
			},
			want: []string{"img-1"},
		},
		{
			name: "insertion order",
			steps: func(t *testing.T, tree *document.Tree, tr *Tracker) {
				insert(t, tree, tr, "b")
				insert(t, tree, tr, "a")
			},
			want: []string{"b", "a"},
		},
		{
			name: "copy keeps the path alive",
			steps: func(t *testing.T, tree *document.Tree, tr *Tracker) {
				k := insert(t, tree, tr, "img-1")
				c, err := tree.Clone(k)
				require.NoError(t, err)
				require.NoError(t, tree.InsertNodes(c))
				require.NoError(t, tree.RemoveNode(k))
			},
			want: []string{"img-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := document.New()
			tr := New(tree, logger.NewNopLogger())
			defer tr.Close()

			tt.steps(t, tree, tr)
			assert.Equal(t, tt.want, paths(tr.PendingUploads()))
			assert.Empty(t, tr.RemovedPaths())
		})
	}
}

func TestRemovedPersistedPaths(t *testing.T) {
	tree := document.New()
	tr := New(tree, logger.NewNopLogger())
	require.NoError(t, markup.Hydrate(tree, `<p><img src="/x" data-path="orig-1"></p><p><img src="/y" data-path="orig-2"></p>`))
	tr.MarkPersisted()
	assert.Empty(t, tr.RemovedPaths())

	imgs := tree.NodesOfKind(document.KindImage)
	require.Len(t, imgs, 2)
	require.NoError(t, tree.RemoveNode(imgs[0].Key))
	assert.Equal(t, []string{"orig-1"}, tr.RemovedPaths())
	assert.Equal(t, tr.RemovedPaths(), tr.RemovedPaths())

	_, err := tree.InsertImage("/x", "orig-1", "", "")
	require.NoError(t, err)
	assert.Empty(t, tr.RemovedPaths())
	assert.Empty(t, tr.PendingUploads())
}

func TestUnpersistedImageRemoval(t *testing.T) {
	tree := document.New()
	k, err := tree.InsertImage("/x", "before.png", "", "")
	require.NoError(t, err)

	tr := New(tree, logger.NewNopLogger())
	defer tr.Close()
	require.NoError(t, tree.RemoveNode(k))

	assert.Empty(t, tr.RemovedPaths(), "never persisted")
	assert.Empty(t, tr.PendingUploads())
}

func TestCommitAfterSubmitStages(t *testing.T) {
	tree := document.New()
	tr := New(tree, logger.NewNopLogger())
	defer tr.Close()

	k := insert(t, tree, tr, "new-1")
	insert(t, tree, tr, "new-2")

	tr.CommitUploaded([]string{"new-1"})
	assert.Equal(t, []string{"new-2"}, paths(tr.PendingUploads()))
	_, ok := tr.Pending("new-1")
	assert.False(t, ok)

	// Once uploaded the image is persisted, so removing it needs a deletion.
	require.NoError(t, tree.RemoveNode(k))
	assert.Equal(t, []string{"new-1"}, tr.RemovedPaths())

	tr.CommitRemoved(tr.RemovedPaths())
	assert.Empty(t, tr.RemovedPaths())
}

func TestCloseStopsTracking(t *testing.T) {
	tree := document.New()
	tr := New(tree, logger.NewNopLogger())
	tr.Close()

	tr.AddPending("late", File{})
	_, err := tree.InsertImage("/late", "late", "", "")
	require.NoError(t, err)
	assert.Empty(t, tr.PendingUploads())
}

func TestDropPending(t *testing.T) {
	tree := document.New()
	tr := New(tree, logger.NewNopLogger())
	defer tr.Close()

	tr.AddPending("never-inserted.png", File{Name: "a.png"})
	tr.DropPending("never-inserted.png")
	_, ok := tr.Pending("never-inserted.png")
	assert.False(t, ok)

	insert(t, tree, tr, "live.png")
	tr.DropPending("live.png")
	assert.Equal(t, []string{"live.png"}, paths(tr.PendingUploads()), "referenced entries stay")
}
