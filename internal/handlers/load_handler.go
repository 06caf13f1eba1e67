package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/shaibs3/uniload/internal/etl"
	"go.uber.org/zap"
)

// maxLoadBody bounds the POST /load request body
const maxLoadBody = 64 << 10

// Runner runs one ETL pass over the given countries
type Runner interface {
	Run(ctx context.Context, countries []string) (etl.Summary, error)
}

// LoadHandler triggers pipeline runs over HTTP, one at a time
type LoadHandler struct {
	runner Runner
	mu     sync.Mutex
	logger *zap.Logger
}

// NewLoadHandler creates a new load handler
func NewLoadHandler(runner Runner) *LoadHandler {
	return &LoadHandler{runner: runner, logger: zap.NewNop()}
}

// RegisterRoutes registers the routes for this handler
func (h *LoadHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("load")
	router.HandleFunc("/load", h.handleLoad).Methods(http.MethodPost)
}

func (h *LoadHandler) handleLoad(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Countries []string `json:"countries"`
	}
	// an empty body loads the default countries
	err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxLoadBody)).Decode(&body)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	case err != nil && !errors.Is(err, io.EOF):
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	countries := make([]string, 0, len(body.Countries))
	for _, c := range body.Countries {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}

	if !h.mu.TryLock() {
		http.Error(w, "A load is already running", http.StatusConflict)
		return
	}
	defer h.mu.Unlock()

	summary, err := h.runner.Run(req.Context(), countries)
	if err != nil {
		h.logger.Error("load aborted", zap.String("run_id", summary.RunID), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":   err.Error(),
			"summary": summary,
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
