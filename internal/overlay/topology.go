// Package overlay composes the per-frame hand skeleton and classification
// label onto a drawing surface.
package overlay

import (
	"math"

	"github.com/ayusman/handsign/internal/detector"
)

// Connection is a pair of landmark indices joined by a bone.
type Connection [2]int

// HandConnections is the MediaPipe hand skeleton.
var HandConnections = []Connection{
	{detector.Wrist, detector.ThumbCMC},
	{detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP},
	{detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP},
	{detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP},
	{detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP},
	{detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP},
	{detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP},
	{detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP},
	{detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP},
	{detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP},
	{detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// Landmark radius endpoints: points at NearZ are drawn NearRadius wide,
// points at FarZ FarRadius wide.
const (
	NearZ      = -0.15
	FarZ       = 0.1
	NearRadius = 10.0
	FarRadius  = 1.0
)

// Lerp maps x from [x0, x1] onto [y0, y1]. Values outside the input range
// extrapolate.
func Lerp(x, x0, x1, y0, y1 float64) float64 {
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// LandmarkRadius is the drawn radius for a landmark at depth z. Closer points
// are larger. Not clamped, so far points can go to zero or below; canvases
// skip non-positive radii.
func LandmarkRadius(z float64) float64 {
	return Lerp(z, NearZ, FarZ, NearRadius, FarRadius)
}

// FitSurface sizes the drawing surface for a source with aspect ratio
// height/width inside a viewport. A landscape viewport fixes the height,
// otherwise the width is fixed.
func FitSurface(viewportWidth, viewportHeight int, aspect float64) (width, height int) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return viewportWidth, viewportHeight
	}
	if viewportWidth > viewportHeight {
		height = viewportHeight
		width = int(math.Round(float64(height) / aspect))
		return width, height
	}
	width = viewportWidth
	height = int(math.Round(float64(width) * aspect))
	return width, height
}
