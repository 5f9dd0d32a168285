package toolbar

import "time"

const (
	VerticalGap      = 10.0
	HorizontalOffset = 5.0
	OffscreenOffset  = -10000.0

	// FadeDuration is the opacity transition the client applies on show and hide.
	FadeDuration = 500 * time.Millisecond
)

// Rect is a viewport rectangle in CSS pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64 {
	return r.Left + r.Width
}

// Geometry is what the client measured. Target is the bounding box of the
// selection and is nil when there is no usable native range. Anchor is the
// element the toolbar is positioned in and Scroller its scrolling parent.
type Geometry struct {
	Target   *Rect `json:"target"`
	Floating Rect  `json:"floating"`
	Anchor   Rect  `json:"anchor"`
	Scroller *Rect `json:"scroller"`
}

// Placement is a translate relative to the anchor plus an opacity.
type Placement struct {
	Top     float64 `json:"top"`
	Left    float64 `json:"left"`
	Opacity float64 `json:"opacity"`
}

// Hidden parks the toolbar off screen.
func Hidden() Placement {
	return Placement{Top: OffscreenOffset, Left: OffscreenOffset, Opacity: 0}
}

// Place puts the toolbar above the target, flipping below it when it would
// leave the top of the scroller, and keeps it inside the scroller's right edge.
func Place(g Geometry) Placement {
	if g.Target == nil || g.Scroller == nil {
		return Hidden()
	}
	target, float, scroller := *g.Target, g.Floating, *g.Scroller

	top := target.Top - float.Height - VerticalGap
	left := target.Left - HorizontalOffset

	if top < scroller.Top {
		top += float.Height + target.Height + VerticalGap*2
	}
	if left+float.Width > scroller.Right() {
		left = scroller.Right() - float.Width - HorizontalOffset
	}

	return Placement{
		Top:     top - g.Anchor.Top,
		Left:    left - g.Anchor.Left,
		Opacity: 1,
	}
}
