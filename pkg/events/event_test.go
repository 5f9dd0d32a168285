package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlogContentSaved(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := NewBlogContentSaved("p", "b", "s", 2, 1, at)

	assert.Equal(t, BlogContentSaved, e.EventType())
	assert.Equal(t, at, e.Timestamp())
	assert.Equal(t, "b", e.String("blog_id"))
	assert.Equal(t, 2, e.Payload()["uploaded"])
	assert.Empty(t, e.String("uploaded"), "non string fields read as empty")
	assert.Empty(t, e.String("missing"))
}
