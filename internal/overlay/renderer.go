package overlay

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
)

// Label positions and style.
var (
	ClassPosition       = image.Pt(50, 0)
	ProbabilityPosition = image.Pt(50, 50)
)

// Default drawing sizes.
const (
	DefaultFontSize       = 60
	DefaultLineWidth      = 4
	DefaultLandmarkStroke = 2
)

// Frame is what the renderer needs for one frame. Label is nil unless the
// frame produced a classification above the gate.
type Frame struct {
	Image *gocv.Mat
	Hands []detector.Hand
	Label *gesture.Classification
}

// Renderer draws frames onto a Canvas.
type Renderer struct {
	Palette        Palette
	FontSize       float64
	LineWidth      int
	LandmarkStroke int
}

// NewRenderer creates a Renderer with default sizes.
func NewRenderer(p Palette) *Renderer {
	return &Renderer{
		Palette:        p,
		FontSize:       DefaultFontSize,
		LineWidth:      DefaultLineWidth,
		LandmarkStroke: DefaultLandmarkStroke,
	}
}

// Render clears the canvas and draws, in order: the frame image, each hand's
// connectors and landmarks in detection order, then the label if any.
func (r *Renderer) Render(c Canvas, f Frame) {
	c.Clear()
	c.DrawImage(f.Image)

	width, height := c.Size()
	for i := range f.Hands {
		r.drawHand(c, &f.Hands[i], width, height)
	}

	if f.Label == nil {
		return
	}
	c.Text(f.Label.Label(), ClassPosition, r.Palette.Ink, r.FontSize)
	c.Text(f.Label.Percent(), ProbabilityPosition, r.Palette.Accent, r.FontSize)
}

func (r *Renderer) drawHand(c Canvas, hand *detector.Hand, width, height int) {
	connector, fill := r.Palette.HandColors(hand.Handedness)

	for _, conn := range HandConnections {
		from := hand.Landmarks[conn[0]].Pixel(width, height)
		to := hand.Landmarks[conn[1]].Pixel(width, height)
		c.Line(from, to, connector, r.LineWidth)
	}

	for _, l := range hand.Landmarks {
		c.Circle(l.Pixel(width, height), LandmarkRadius(l.Z), connector, fill, r.LandmarkStroke)
	}
}
