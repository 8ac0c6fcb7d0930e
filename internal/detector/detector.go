package detector

import (
	"fmt"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hands in the
	// detector's internal order. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Configurable is implemented by detectors whose options can change at runtime.
type Configurable interface {
	SetOptions(opts Options) error
}

// Options are the detector settings the pipeline recognizes.
type Options struct {
	// SelfieMode mirrors the input horizontally before detection.
	SelfieMode bool `yaml:"selfieMode" json:"selfieMode"`

	// MaxNumHands caps how many hands are detected at once.
	MaxNumHands int `yaml:"maxNumHands" json:"maxNumHands"`

	// ModelComplexity selects the landmark model (0 = lite, 1 = full).
	ModelComplexity int `yaml:"modelComplexity" json:"modelComplexity"`

	// MinDetectionConfidence is the palm detection threshold (0.0-1.0).
	MinDetectionConfidence float64 `yaml:"minDetectionConfidence" json:"minDetectionConfidence"`

	// MinTrackingConfidence is the landmark tracking threshold (0.0-1.0).
	MinTrackingConfidence float64 `yaml:"minTrackingConfidence" json:"minTrackingConfidence"`
}

// MaxHandsLimit is the largest MaxNumHands accepted.
const MaxHandsLimit = 4

// DefaultOptions returns Options with sensible default values. One hand is
// detected by default since the classifier takes a single hand.
func DefaultOptions() Options {
	return Options{
		SelfieMode:             true,
		MaxNumHands:            1,
		ModelComplexity:        1,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	}
}

// Validate reports every out-of-range option.
func (o Options) Validate() error {
	var err error
	if o.MaxNumHands < 1 || o.MaxNumHands > MaxHandsLimit {
		err = multierr.Append(err, fmt.Errorf("maxNumHands must be between 1 and %d, got %d", MaxHandsLimit, o.MaxNumHands))
	}
	if o.ModelComplexity != 0 && o.ModelComplexity != 1 {
		err = multierr.Append(err, fmt.Errorf("modelComplexity must be 0 or 1, got %d", o.ModelComplexity))
	}
	if o.MinDetectionConfidence < 0 || o.MinDetectionConfidence > 1 {
		err = multierr.Append(err, fmt.Errorf("minDetectionConfidence must be between 0 and 1, got %f", o.MinDetectionConfidence))
	}
	if o.MinTrackingConfidence < 0 || o.MinTrackingConfidence > 1 {
		err = multierr.Append(err, fmt.Errorf("minTrackingConfidence must be between 0 and 1, got %f", o.MinTrackingConfidence))
	}
	return err
}

// Args renders the options as command line flags for the landmark service.
func (o Options) Args() []string {
	return []string{
		fmt.Sprintf("--max-num-hands=%d", o.MaxNumHands),
		fmt.Sprintf("--model-complexity=%d", o.ModelComplexity),
		fmt.Sprintf("--min-detection-confidence=%g", o.MinDetectionConfidence),
		fmt.Sprintf("--min-tracking-confidence=%g", o.MinTrackingConfidence),
	}
}
