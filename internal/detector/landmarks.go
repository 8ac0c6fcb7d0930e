// Package detector provides hand detection interfaces and types for the overlay pipeline.
package detector

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness is the detector-assigned side of a hand.
type Handedness string

const (
	Left  Handedness = "Left"
	Right Handedness = "Right"
)

// Landmark is a single hand point. For image landmarks X and Y are normalized
// to [0,1] of the frame and Z is depth relative to the wrist; world landmarks
// use the model's own metric frame.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pixel maps an image-normalized landmark onto a surface of the given size.
func (l Landmark) Pixel(width, height int) image.Point {
	return image.Point{
		X: int(l.X * float64(width)),
		Y: int(l.Y * float64(height)),
	}
}

// Hand is one detected hand.
type Hand struct {
	Landmarks      [NumLandmarks]Landmark `json:"landmarks"`
	WorldLandmarks [NumLandmarks]Landmark `json:"worldLandmarks"`
	Handedness     Handedness             `json:"handedness"`
	Score          float64                `json:"score"`
}

// IsRight reports whether the detector labelled the hand as a right hand.
func (h *Hand) IsRight() bool {
	return h.Handedness == Right
}

// Result is everything the detector produced for one frame. Hands keep the
// detector's internal order, which is stable within the frame only.
// Whoever receives a Result owns Image and must close it.
type Result struct {
	Image      *gocv.Mat
	Hands      []Hand
	Sequence   uint64
	CapturedAt time.Time
}

// Close releases the frame image.
func (r *Result) Close() error {
	if r == nil || r.Image == nil {
		return nil
	}
	err := r.Image.Close()
	r.Image = nil
	return err
}

// Size returns the frame dimensions, or zeros when there is no image.
func (r *Result) Size() (width, height int) {
	if r == nil || r.Image == nil || r.Image.Empty() {
		return 0, 0
	}
	return r.Image.Cols(), r.Image.Rows()
}
