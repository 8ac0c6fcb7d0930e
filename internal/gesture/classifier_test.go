package gesture

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handsign/internal/detector"
)

func TestArgmax(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float32
		wantClass int
		wantProb  float64
	}{
		{name: "clear winner", scores: []float32{0.05, 0.82, 0.13}, wantClass: 1, wantProb: 0.82},
		{name: "first of equal maxima", scores: []float32{0.4, 0.2, 0.4}, wantClass: 0, wantProb: 0.4},
		{name: "tie after the start", scores: []float32{0.1, 0.45, 0.45}, wantClass: 1, wantProb: 0.45},
		{name: "single score", scores: []float32{0.3}, wantClass: 0, wantProb: 0.3},
		{name: "last wins", scores: []float32{0.01, 0.02, 0.97}, wantClass: 2, wantProb: 0.97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Argmax(tt.scores)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClass, got.ClassIndex)
			assert.InDelta(t, tt.wantProb, got.Probability, 1e-6)
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, err := Argmax(nil)
		assert.ErrorIs(t, err, ErrEmptyScores)
	})
}

func TestClassification_Actionable(t *testing.T) {
	tests := []struct {
		prob float64
		want bool
	}{
		{prob: 0.70, want: false},
		{prob: 0.71, want: true},
		{prob: 0.69, want: false},
		{prob: 1.0, want: true},
	}
	for _, tt := range tests {
		c := Classification{ClassIndex: 1, Probability: tt.prob}
		assert.Equal(t, tt.want, c.Actionable(DefaultThreshold), "probability %v", tt.prob)
	}
}

func TestClassification_Text(t *testing.T) {
	c := Classification{ClassIndex: 3, Probability: 0.8235}
	assert.Equal(t, "3", c.Label())
	assert.Equal(t, "82.35%", c.Percent())

	c = Classification{ClassIndex: 1, Probability: float64(float32(0.91))}
	assert.Equal(t, "91.00%", c.Percent())
}

func TestClassifier_Classify(t *testing.T) {
	hand := detector.OpenPalm(detector.Right)
	fv := Extract([]detector.Hand{hand})

	t.Run("reshapes input and picks argmax", func(t *testing.T) {
		model := NewMockModel(0.05, 0.91, 0.04)
		c := NewClassifier(model)

		got, err := c.Classify(fv)
		require.NoError(t, err)
		assert.Equal(t, 1, got.ClassIndex)
		assert.InDelta(t, 0.91, got.Probability, 1e-6)

		input, shape := model.LastInput()
		assert.Empty(t, cmp.Diff([]int{1, 1, 42}, shape))
		assert.Empty(t, cmp.Diff([]float32(fv), input))
	})

	t.Run("wrong length never reaches the model", func(t *testing.T) {
		model := NewMockModel(1)
		c := NewClassifier(model)

		_, err := c.Classify(Extract([]detector.Hand{hand, hand}))
		assert.ErrorIs(t, err, ErrFeatureLength)
		_, err = c.Classify(nil)
		assert.ErrorIs(t, err, ErrFeatureLength)
		assert.Zero(t, model.Calls())
	})

	t.Run("low confidence is not an error", func(t *testing.T) {
		c := NewClassifier(NewMockModel(0.3, 0.3, 0.4))

		got, err := c.Classify(fv)
		require.NoError(t, err)
		assert.Equal(t, 2, got.ClassIndex)
		assert.False(t, got.Actionable(DefaultThreshold))
	})

	t.Run("model error is wrapped", func(t *testing.T) {
		model := NewMockModel()
		boom := errors.New("boom")
		model.SetError(boom)

		_, err := NewClassifier(model).Classify(fv)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty scores", func(t *testing.T) {
		_, err := NewClassifier(NewMockModel()).Classify(fv)
		assert.ErrorIs(t, err, ErrEmptyScores)
	})

	t.Run("no model", func(t *testing.T) {
		var c *Classifier
		_, err := c.Classify(fv)
		assert.ErrorIs(t, err, ErrModelNotLoaded)
		assert.NoError(t, c.Close())
	})

	t.Run("close releases the model", func(t *testing.T) {
		model := NewMockModel()
		require.NoError(t, NewClassifier(model).Close())
		assert.True(t, model.Closed())
	})
}

func TestFloat32Bytes(t *testing.T) {
	b := float32Bytes([]float32{1, -2})
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0xc0}, b)
}

func TestFrameworkFor(t *testing.T) {
	tests := []struct {
		location string
		want     string
		wantErr  bool
	}{
		{location: "models/hands.onnx", want: FrameworkONNX},
		{location: "http://localhost:3000/saved_model/model.ONNX?v=2", want: FrameworkONNX},
		{location: "frozen_graph.pb", want: FrameworkTensorflow},
		{location: "http://localhost:3000/saved_model/model.json", wantErr: true},
		{location: "model", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got, err := FrameworkFor(tt.location)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewNetModel_Rejects(t *testing.T) {
	_, err := NewNetModel("caffe", []byte{1})
	assert.ErrorContains(t, err, "unsupported")
}
