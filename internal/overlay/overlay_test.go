package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/gesture"
)

var (
	green = color.RGBA{G: 0xff, A: 0xff}
	red   = color.RGBA{R: 0xff, A: 0xff}
)

func TestHandConnections(t *testing.T) {
	assert.Len(t, HandConnections, 21)
	seen := make(map[int]bool)
	for _, c := range HandConnections {
		for _, idx := range c {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, detector.NumLandmarks)
			seen[idx] = true
		}
	}
	assert.Len(t, seen, detector.NumLandmarks, "every landmark is part of the skeleton")
}

func TestLandmarkRadius(t *testing.T) {
	tests := []struct {
		name string
		z    float64
		want float64
	}{
		{name: "near", z: -0.15, want: 10},
		{name: "far", z: 0.1, want: 1},
		{name: "midpoint", z: -0.025, want: 5.5},
		{name: "closer than near extrapolates", z: -0.4, want: 19},
		{name: "beyond far extrapolates", z: 0.35, want: -8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LandmarkRadius(tt.z), 1e-9)
		})
	}
}

func TestFitSurface(t *testing.T) {
	tests := []struct {
		name         string
		vw, vh       int
		aspect       float64
		wantW, wantH int
	}{
		{name: "landscape viewport", vw: 1920, vh: 1080, aspect: 0.75, wantW: 1440, wantH: 1080},
		{name: "landscape widescreen source", vw: 1280, vh: 720, aspect: 0.5625, wantW: 1280, wantH: 720},
		{name: "portrait viewport", vw: 720, vh: 1280, aspect: 0.75, wantW: 720, wantH: 540},
		{name: "square viewport fixes width", vw: 800, vh: 800, aspect: 0.5, wantW: 800, wantH: 400},
		{name: "unknown aspect keeps viewport", vw: 640, vh: 480, aspect: 0, wantW: 640, wantH: 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitSurface(tt.vw, tt.vh, tt.aspect)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestPalette(t *testing.T) {
	p := DefaultPalette()
	assert.Equal(t, green, p.Primary)
	assert.Equal(t, red, p.Secondary)
	assert.Equal(t, color.RGBA{A: 0xff}, p.Ink)
	assert.Equal(t, color.RGBA{G: 0x80, A: 0xff}, p.Accent)

	conn, fill := p.HandColors(detector.Right)
	assert.Equal(t, green, conn)
	assert.Equal(t, red, fill)

	conn, fill = p.HandColors(detector.Left)
	assert.Equal(t, red, conn)
	assert.Equal(t, green, fill)

	_, err := ParsePalette("#00FF00", "nope", "#000000", "blue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secondary")
	assert.Contains(t, err.Error(), "accent")
}

func blankFrame(t *testing.T, w, h int) *gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return &mat
}

func TestRenderer_ZeroHands(t *testing.T) {
	c := NewRecordingCanvas(640, 480)
	r := NewRenderer(DefaultPalette())

	r.Render(c, Frame{Image: blankFrame(t, 320, 240)})

	require.Len(t, c.Ops, 2)
	assert.Equal(t, OpClear, c.Ops[0].Kind)
	assert.Equal(t, OpImage, c.Ops[1].Kind)
}

func TestRenderer_HandSkeleton(t *testing.T) {
	c := NewRecordingCanvas(640, 480)
	r := NewRenderer(DefaultPalette())

	right := detector.OpenPalm(detector.Right)
	left := detector.OpenPalm(detector.Left)
	r.Render(c, Frame{Image: blankFrame(t, 320, 240), Hands: []detector.Hand{right, left}})

	perHand := len(HandConnections) + detector.NumLandmarks
	require.Len(t, c.Ops, 2+2*perHand)
	assert.Zero(t, c.Count(OpText))

	// first hand: all connectors, then all landmarks
	first := c.Ops[2 : 2+perHand]
	for i, op := range first {
		if i < len(HandConnections) {
			require.Equal(t, OpLine, op.Kind)
			assert.Equal(t, green, op.Color)
			continue
		}
		require.Equal(t, OpCircle, op.Kind)
		assert.Equal(t, green, op.Color)
		assert.Equal(t, red, op.Fill)
	}

	wrist := first[len(HandConnections)]
	assert.Equal(t, right.Landmarks[detector.Wrist].Pixel(640, 480), wrist.From)
	assert.InDelta(t, LandmarkRadius(right.Landmarks[detector.Wrist].Z), wrist.Radius, 1e-9)

	// second hand is left: colors swapped
	second := c.Ops[2+perHand:]
	assert.Equal(t, red, second[0].Color)
	last := second[len(second)-1]
	assert.Equal(t, red, last.Color)
	assert.Equal(t, green, last.Fill)
}

func TestRenderer_Label(t *testing.T) {
	c := NewRecordingCanvas(640, 480)
	p := DefaultPalette()
	r := NewRenderer(p)

	label := gesture.Classification{ClassIndex: 1, Probability: 0.91}
	r.Render(c, Frame{
		Image: blankFrame(t, 320, 240),
		Hands: []detector.Hand{detector.OpenPalm(detector.Right)},
		Label: &label,
	})

	texts := c.Texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "1", texts[0].Text)
	assert.Equal(t, image.Pt(50, 0), texts[0].From)
	assert.Equal(t, p.Ink, texts[0].Color)
	assert.Equal(t, "91.00%", texts[1].Text)
	assert.Equal(t, image.Pt(50, 50), texts[1].From)
	assert.Equal(t, p.Accent, texts[1].Color)
	assert.Equal(t, float64(DefaultFontSize), texts[1].Size)

	// label comes last, after the skeleton
	assert.Equal(t, OpText, c.Ops[len(c.Ops)-1].Kind)
	assert.Equal(t, OpText, c.Ops[len(c.Ops)-2].Kind)
}

func TestRenderer_ClearsBetweenFrames(t *testing.T) {
	c := NewRecordingCanvas(640, 480)
	r := NewRenderer(DefaultPalette())
	label := gesture.Classification{ClassIndex: 2, Probability: 0.9}

	r.Render(c, Frame{Hands: []detector.Hand{detector.OpenPalm(detector.Right)}, Label: &label})
	require.Equal(t, 2, c.Count(OpText))

	r.Render(c, Frame{})
	assert.Equal(t, []Op{{Kind: OpClear}}, c.Ops)
}
