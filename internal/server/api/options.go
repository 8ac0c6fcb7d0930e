package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/handsign/internal/detector"
)

// OptionsStore holds the live detector options.
type OptionsStore interface {
	Options() detector.Options
	SetOptions(opts detector.Options) error
}

// OptionsHandler handles GET and PUT on /api/options.
type OptionsHandler struct {
	store  OptionsStore
	logger *zap.SugaredLogger
}

// NewOptionsHandler creates an OptionsHandler over store.
func NewOptionsHandler(store OptionsStore, logger *zap.SugaredLogger) *OptionsHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &OptionsHandler{store: store, logger: logger}
}

// ServeHTTP implements the http.Handler interface.
func (h *OptionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.store.Options())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update merges the request body over the current options, so omitted
// fields keep their values.
func (h *OptionsHandler) update(w http.ResponseWriter, r *http.Request) {
	opts := h.store.Options()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SetOptions(opts); err != nil {
		h.logger.Errorw("failed to apply detector options", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to apply options")
		return
	}

	h.logger.Infow("detector options updated", "options", opts)
	writeJSON(w, http.StatusOK, opts)
}
