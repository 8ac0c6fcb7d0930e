// Package gesture turns detected hands into features and classifies them with
// a pre-trained model.
package gesture

import "github.com/ayusman/handsign/internal/detector"

// FeatureLength is the only vector length the classifier accepts: 21 world
// landmarks, x and y each. Since every hand contributes the same amount this
// is reached with exactly one hand in view.
const FeatureLength = detector.NumLandmarks * 2

// FeatureVector is the flattened classifier input for one frame.
type FeatureVector []float32

// Ready reports whether the vector has exactly FeatureLength values. Any other
// length means too few or too many hands are in view.
func (f FeatureVector) Ready() bool {
	return len(f) == FeatureLength
}

// Extract concatenates the world-landmark (x, y) pairs of every hand in
// detection order. Depth is discarded. No hands gives an empty vector.
func Extract(hands []detector.Hand) FeatureVector {
	fv := make(FeatureVector, 0, len(hands)*FeatureLength)
	for i := range hands {
		for _, l := range hands[i].WorldLandmarks {
			fv = append(fv, float32(l.X), float32(l.Y))
		}
	}
	return fv
}
