package gesture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds a single model download.
const DefaultFetchTimeout = 30 * time.Second

// LoadFunc loads a classifier. It is called exactly once per PendingModel.
type LoadFunc func(ctx context.Context) (*Classifier, error)

// Loader fetches a model artifact from a URL or local path and builds a
// classifier from it.
type Loader struct {
	Client *http.Client
	Logger *zap.SugaredLogger
}

// NewLoader creates a Loader with a bounded HTTP client.
func NewLoader(logger *zap.SugaredLogger) *Loader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loader{
		Client: &http.Client{Timeout: DefaultFetchTimeout},
		Logger: logger,
	}
}

// Load fetches location and parses it with framework; an empty framework is
// inferred from the location's extension.
func (l *Loader) Load(ctx context.Context, location, framework string) (*Classifier, error) {
	if framework == "" {
		var err error
		if framework, err = FrameworkFor(location); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	data, err := l.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	model, err := NewNetModel(framework, data)
	if err != nil {
		return nil, err
	}

	l.Logger.Infow("model loaded",
		"location", location,
		"framework", framework,
		"bytes", len(data),
		"elapsed", time.Since(start),
	)

	return NewClassifier(model), nil
}

// Func binds Load to a location for LoadAsync.
func (l *Loader) Func(location, framework string) LoadFunc {
	return func(ctx context.Context) (*Classifier, error) {
		return l.Load(ctx, location, framework)
	}
}

// Fetch reads the artifact bytes. http and https locations are downloaded,
// anything else is read from disk.
func (l *Loader) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read model: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch model: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model body: %w", err)
	}
	return data, nil
}

// PendingModel is a model load in progress. The pipeline waits on it once
// before consuming any frame.
type PendingModel struct {
	done       chan struct{}
	classifier *Classifier
	err        error
}

// LoadAsync starts load in the background.
func LoadAsync(ctx context.Context, load LoadFunc) *PendingModel {
	p := &PendingModel{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.classifier, p.err = load(ctx)
	}()
	return p
}

// Loaded wraps an already loaded classifier.
func Loaded(c *Classifier) *PendingModel {
	p := &PendingModel{done: make(chan struct{}), classifier: c}
	close(p.done)
	return p
}

// Done is closed once the load has finished, successfully or not.
func (p *PendingModel) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the load finishes or ctx is cancelled.
func (p *PendingModel) Wait(ctx context.Context) (*Classifier, error) {
	select {
	case <-p.done:
		return p.classifier, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
