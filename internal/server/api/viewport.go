package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// MaxViewportSide bounds each viewport dimension.
const MaxViewportSide = 8192

// ViewportStore holds the size the drawing surface is fitted into.
type ViewportStore interface {
	Viewport() (width, height int)
	SetViewport(width, height int)
}

type viewportBody struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ViewportHandler handles GET and PUT on /api/viewport.
type ViewportHandler struct {
	store  ViewportStore
	logger *zap.SugaredLogger
}

// NewViewportHandler creates a ViewportHandler over store.
func NewViewportHandler(store ViewportStore, logger *zap.SugaredLogger) *ViewportHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ViewportHandler{store: store, logger: logger}
}

// ServeHTTP implements the http.Handler interface.
func (h *ViewportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		width, height := h.store.Viewport()
		writeJSON(w, http.StatusOK, viewportBody{Width: width, Height: height})
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update sets a new viewport; the surface is refitted on the next frame.
func (h *ViewportHandler) update(w http.ResponseWriter, r *http.Request) {
	var body viewportBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	if body.Width <= 0 || body.Height <= 0 || body.Width > MaxViewportSide || body.Height > MaxViewportSide {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("viewport must be between 1 and %d on each side, got %dx%d", MaxViewportSide, body.Width, body.Height))
		return
	}

	h.store.SetViewport(body.Width, body.Height)
	h.logger.Infow("viewport updated", "width", body.Width, "height", body.Height)
	writeJSON(w, http.StatusOK, body)
}
