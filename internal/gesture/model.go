package gesture

import (
	"encoding/binary"
	"fmt"
	"math"
	"path"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Supported model frameworks.
const (
	FrameworkONNX       = "onnx"
	FrameworkTensorflow = "tensorflow"
)

// FrameworkFor guesses the framework from a file name or URL path.
func FrameworkFor(location string) (string, error) {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	switch strings.ToLower(path.Ext(location)) {
	case ".onnx":
		return FrameworkONNX, nil
	case ".pb":
		return FrameworkTensorflow, nil
	default:
		return "", fmt.Errorf("cannot infer model framework from %q", location)
	}
}

// NetModel runs a model through the OpenCV DNN module.
type NetModel struct {
	mu  sync.Mutex
	net gocv.Net
}

// NewNetModel parses a serialized model.
func NewNetModel(framework string, data []byte) (*NetModel, error) {
	var (
		net gocv.Net
		err error
	)
	switch framework {
	case FrameworkONNX:
		net, err = gocv.ReadNetFromONNXBytes(data)
	case FrameworkTensorflow:
		net, err = gocv.ReadNetFromTensorflowBytes(data)
	default:
		return nil, fmt.Errorf("unsupported model framework %q", framework)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s model: %w", framework, err)
	}
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("read %s model: network is empty", framework)
	}

	return &NetModel{net: net}, nil
}

// Predict feeds input as a float32 blob of the given shape and returns the
// first output layer.
func (m *NetModel) Predict(input []float32, shape []int) ([]float32, error) {
	blob, err := gocv.NewMatWithSizesFromBytes(shape, gocv.MatTypeCV32F, float32Bytes(input))
	if err != nil {
		return nil, fmt.Errorf("create input blob: %w", err)
	}
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scores := make([]float32, len(data))
	copy(scores, data)
	return scores, nil
}

// Close releases the network.
func (m *NetModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

func float32Bytes(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}
