package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shaibs3/uniload/internal/db"
	"github.com/shaibs3/uniload/internal/storage"
	"go.uber.org/zap"
)

// maxLimit bounds the limit query parameter
const maxLimit = 1000

// ReportHandler serves the read-only report queries
type ReportHandler struct {
	DB     storage.Reporter
	logger *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reporter storage.Reporter) *ReportHandler {
	return &ReportHandler{DB: reporter, logger: zap.NewNop()}
}

// RegisterRoutes registers the routes for this handler
func (h *ReportHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("reports")
	router.HandleFunc("/countries", h.handleCountries).Methods(http.MethodGet)
	router.HandleFunc("/countries/{name}/universities", h.handleCountryUniversities).Methods(http.MethodGet)
	router.HandleFunc("/universities", h.handleSearch).Methods(http.MethodGet)
}

func (h *ReportHandler) handleCountries(w http.ResponseWriter, req *http.Request) {
	totals, err := h.DB.CountryTotals(req.Context())
	if err != nil {
		h.logger.Error("failed to query country totals", zap.Error(err))
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}
	if totals == nil {
		totals = []db.CountryTotal{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"countries": totals,
	})
}

func (h *ReportHandler) handleCountryUniversities(w http.ResponseWriter, req *http.Request) {
	country := strings.TrimSpace(mux.Vars(req)["name"])
	if country == "" {
		http.Error(w, "Country name is required", http.StatusBadRequest)
		return
	}
	limit, ok := parseLimit(w, req)
	if !ok {
		return
	}

	matches, err := h.DB.UniversitiesByCountry(req.Context(), country, limit)
	if err != nil {
		h.logger.Error("failed to query universities", zap.String("country", country), zap.Error(err))
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []db.UniversityMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"country":      country,
		"universities": matches,
	})
}

func (h *ReportHandler) handleSearch(w http.ResponseWriter, req *http.Request) {
	term := strings.TrimSpace(req.URL.Query().Get("q"))
	if term == "" {
		http.Error(w, "Query parameter q is required", http.StatusBadRequest)
		return
	}
	limit, ok := parseLimit(w, req)
	if !ok {
		return
	}

	matches, err := h.DB.SearchUniversities(req.Context(), term, limit)
	if err != nil {
		h.logger.Error("failed to search universities", zap.String("q", term), zap.Error(err))
		http.Error(w, "Failed to fetch records", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []db.UniversityMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"q":            term,
		"universities": matches,
	})
}

// parseLimit reads ?limit=, writing a 400 when it is not a positive integer
func parseLimit(w http.ResponseWriter, req *http.Request) (int, bool) {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return db.DefaultReportLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxLimit {
		http.Error(w, "limit must be an integer between 1 and 1000", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
