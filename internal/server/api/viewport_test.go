package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryViewport struct {
	mu            sync.Mutex
	width, height int
}

func (m *memoryViewport) Viewport() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *memoryViewport) SetViewport(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width, m.height = width, height
}

func TestViewportHandler(t *testing.T) {
	store := &memoryViewport{width: 1280, height: 720}
	h := NewViewportHandler(store, zaptest.NewLogger(t).Sugar())

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/viewport", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got viewportBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, viewportBody{Width: 1280, Height: 720}, got)
	})

	t.Run("put", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/viewport", strings.NewReader(`{"width": 600, "height": 800}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		w, hh := store.Viewport()
		assert.Equal(t, 600, w)
		assert.Equal(t, 800, hh)
	})

	t.Run("rejects bad sizes", func(t *testing.T) {
		for _, body := range []string{
			`{"width": 0, "height": 800}`,
			`{"width": 600}`,
			`{"width": 100000, "height": 800}`,
			`{"width": 600, "height": 800, "depth": 3}`,
			`not json`,
		} {
			req := httptest.NewRequest(http.MethodPut, "/api/viewport", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
		w, hh := store.Viewport()
		assert.Equal(t, 600, w)
		assert.Equal(t, 800, hh)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/viewport", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
