package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// OpKind names a recorded drawing call.
type OpKind string

const (
	OpClear  OpKind = "clear"
	OpImage  OpKind = "image"
	OpLine   OpKind = "line"
	OpCircle OpKind = "circle"
	OpText   OpKind = "text"
)

// Op is one recorded drawing call.
type Op struct {
	Kind   OpKind
	From   image.Point
	To     image.Point
	Color  color.RGBA
	Fill   color.RGBA
	Radius float64
	Text   string
	Size   float64
}

// RecordingCanvas is a Canvas that keeps a log of drawing calls instead of
// pixels. Clear empties the log, so after a render it holds exactly one frame.
type RecordingCanvas struct {
	Ops     []Op
	width   int
	height  int
	resizes int
}

// NewRecordingCanvas creates a recording canvas of the given size.
func NewRecordingCanvas(width, height int) *RecordingCanvas {
	return &RecordingCanvas{width: width, height: height}
}

func (c *RecordingCanvas) Resize(width, height int) {
	c.width, c.height = width, height
	c.resizes++
}

// Resizes counts Resize calls.
func (c *RecordingCanvas) Resizes() int { return c.resizes }

func (c *RecordingCanvas) Size() (int, int) { return c.width, c.height }

func (c *RecordingCanvas) Clear() {
	c.Ops = []Op{{Kind: OpClear}}
}

func (c *RecordingCanvas) DrawImage(img *gocv.Mat) {
	if img == nil || img.Empty() {
		return
	}
	c.Ops = append(c.Ops, Op{Kind: OpImage, To: image.Pt(img.Cols(), img.Rows())})
}

func (c *RecordingCanvas) Line(from, to image.Point, col color.RGBA, thickness int) {
	c.Ops = append(c.Ops, Op{Kind: OpLine, From: from, To: to, Color: col})
}

func (c *RecordingCanvas) Circle(center image.Point, radius float64, stroke, fill color.RGBA, thickness int) {
	c.Ops = append(c.Ops, Op{Kind: OpCircle, From: center, Radius: radius, Color: stroke, Fill: fill})
}

func (c *RecordingCanvas) Text(text string, at image.Point, col color.RGBA, size float64) {
	c.Ops = append(c.Ops, Op{Kind: OpText, From: at, Text: text, Color: col, Size: size})
}

// Count returns how many ops of kind were recorded.
func (c *RecordingCanvas) Count(kind OpKind) int {
	n := 0
	for _, op := range c.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Texts returns the recorded text ops in order.
func (c *RecordingCanvas) Texts() []Op {
	var texts []Op
	for _, op := range c.Ops {
		if op.Kind == OpText {
			texts = append(texts, op)
		}
	}
	return texts
}

// Mat returns nil; a recording canvas has no pixels.
func (c *RecordingCanvas) Mat() *gocv.Mat { return nil }

func (c *RecordingCanvas) Close() error { return nil }
