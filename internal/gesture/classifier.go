package gesture

import (
	"errors"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// DefaultThreshold is the probability a classification must exceed to be shown.
const DefaultThreshold = 0.7

var (
	// ErrFeatureLength is returned when the feature vector is not FeatureLength long.
	ErrFeatureLength = errors.New("feature vector must have exactly 42 values (one hand)")
	// ErrEmptyScores is returned when the model produces no scores.
	ErrEmptyScores = errors.New("model returned no scores")
	// ErrModelNotLoaded is returned when a classifier is used without a model.
	ErrModelNotLoaded = errors.New("model not loaded")
)

// InputShape is the tensor shape fed to the model: one sample, one channel,
// FeatureLength values.
var InputShape = []int{1, 1, FeatureLength}

// Model runs inference on a flat input of the given shape and returns the raw
// score vector.
type Model interface {
	Predict(input []float32, shape []int) ([]float32, error)
	Close() error
}

// Classification is the winning class of one inference.
type Classification struct {
	ClassIndex  int     `json:"class"`
	Probability float64 `json:"probability"`
}

// Actionable reports whether the probability is strictly above threshold.
func (c Classification) Actionable(threshold float64) bool {
	return c.Probability > threshold
}

// Label is the class index as text.
func (c Classification) Label() string {
	return strconv.Itoa(c.ClassIndex)
}

// Percent is the probability as a percentage with two decimals, e.g. "82.35%".
func (c Classification) Percent() string {
	return fmt.Sprintf("%.2f%%", c.Probability*100)
}

// Argmax picks the highest score; ties go to the lowest index. The score is
// taken as the probability as-is, the model is expected to emit a
// normalized distribution.
func Argmax(scores []float32) (Classification, error) {
	if len(scores) == 0 {
		return Classification{}, ErrEmptyScores
	}

	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s)
	}

	idx := floats.MaxIdx(values)
	return Classification{ClassIndex: idx, Probability: values[idx]}, nil
}

// Classifier wraps a loaded model.
type Classifier struct {
	model Model
}

// NewClassifier creates a classifier over model.
func NewClassifier(model Model) *Classifier {
	return &Classifier{model: model}
}

// Classify runs the model on fv. Low confidence is not an error; callers gate
// the result with Actionable.
func (c *Classifier) Classify(fv FeatureVector) (Classification, error) {
	if c == nil || c.model == nil {
		return Classification{}, ErrModelNotLoaded
	}
	if !fv.Ready() {
		return Classification{}, fmt.Errorf("%w, got %d", ErrFeatureLength, len(fv))
	}

	scores, err := c.model.Predict(fv, InputShape)
	if err != nil {
		return Classification{}, fmt.Errorf("predict: %w", err)
	}

	return Argmax(scores)
}

// Close releases the model.
func (c *Classifier) Close() error {
	if c == nil || c.model == nil {
		return nil
	}
	return c.model.Close()
}
