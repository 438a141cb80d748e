package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/hive-corporation/fusion/internal/adapter/exporter"
	"github.com/hive-corporation/fusion/internal/core/domain"
	"github.com/hive-corporation/fusion/internal/core/service"
)

const (
	defaultListLimit = 50
	maxBodyBytes     = 32 << 20
)

type RestHandler struct {
	sessions     *service.SessionService
	importer     *service.Importer
	cefExporter  *exporter.CEFExporter
	stixExporter *exporter.STIXExporter
	validate     *validator.Validate
}

func NewRestHandler(sessions *service.SessionService, importer *service.Importer) *RestHandler {
	return &RestHandler{
		sessions:     sessions,
		importer:     importer,
		cefExporter:  exporter.NewCEFExporter(),
		stixExporter: exporter.NewSTIXExporter(),
		validate:     validator.New(),
	}
}

// RegisterRoutes mounts the session API on router.
func (h *RestHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", h.Health).Methods("GET")

	api.HandleFunc("/sessions", h.CreateSession).Methods("POST")
	api.HandleFunc("/sessions", h.ListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", h.UpdateSession).Methods("PATCH")
	api.HandleFunc("/sessions/{id}", h.DeleteSession).Methods("DELETE")

	api.HandleFunc("/sessions/{id}/datapoints", h.AddDataPoint).Methods("POST")
	api.HandleFunc("/sessions/{id}/datapoints", h.SearchDataPoints).Methods("GET")
	api.HandleFunc("/sessions/{id}/datapoints/{dp}", h.UpdateDataPoint).Methods("PATCH")
	api.HandleFunc("/sessions/{id}/datapoints/{dp}", h.RemoveDataPoint).Methods("DELETE")

	api.HandleFunc("/sessions/{id}/import", h.Import).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk", h.ImportBulk).Methods("POST")
	api.HandleFunc("/sessions/{id}/analytics", h.GetAnalytics).Methods("GET")
	api.HandleFunc("/sessions/{id}/export", h.Export).Methods("GET")
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "fusion-api",
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *RestHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if !h.decode(w, r, &body) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.sessions.CreateSession(ctx, body.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *RestHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.sessions.ListSessions(ctx, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *RestHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.sessions.GetSession(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *RestHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var body updateSessionRequest
	if !h.decode(w, r, &body) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.sessions.UpdateSession(ctx, mux.Vars(r)["id"], body.patch())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *RestHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.sessions.DeleteSession(ctx, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RestHandler) AddDataPoint(w http.ResponseWriter, r *http.Request) {
	var body dataPointRequest
	if !h.decode(w, r, &body) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dp, session, err := h.sessions.AddDataPoint(ctx, mux.Vars(r)["id"], body.draft(), domain.Defaults{})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"dataPoint": dp,
		"version":   session.Version,
		"analytics": session.Analytics,
	})
}

func (h *RestHandler) SearchDataPoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	points, err := h.sessions.FindDataPoints(ctx, mux.Vars(r)["id"], r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dataPoints": points,
		"count":      len(points),
	})
}

func (h *RestHandler) UpdateDataPoint(w http.ResponseWriter, r *http.Request) {
	var body patchDataPointRequest
	if !h.decode(w, r, &body) {
		return
	}
	patch, err := body.patch()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	session, err := h.sessions.UpdateDataPoint(ctx, vars["id"], vars["dp"], patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *RestHandler) RemoveDataPoint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	session, err := h.sessions.RemoveDataPoint(ctx, vars["id"], vars["dp"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Import runs a batch of tool outputs. A single item that could not be
// parsed answers 422 with the batch summary.
func (h *RestHandler) Import(w http.ResponseWriter, r *http.Request) {
	var body importRequest
	if !h.decode(w, r, &body) {
		return
	}
	items, err := body.items()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := h.importer.Import(ctx, mux.Vars(r)["id"], items)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if result.Total == 1 && result.Successful == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (h *RestHandler) ImportBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkRequest
	if !h.decode(w, r, &body) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := h.importer.ImportBulk(ctx, mux.Vars(r)["id"], body.request())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RestHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.sessions.GetSession(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": session.ID,
		"version":   session.Version,
		"analytics": session.Analytics,
	})
}

// Export renders a session as a STIX bundle, CEF lines or the raw JSON
// document. The format defaults to json.
func (h *RestHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "stix" && format != "cef" {
		writeError(w, http.StatusBadRequest, "invalid 'format' parameter. Must be 'stix', 'cef' or 'json'")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	session, err := h.sessions.GetSession(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch format {
	case "stix":
		bundle, err := h.stixExporter.Export(session)
		if err != nil {
			log.Printf("❌ STIX export failed for session %s: %v", session.ID, err)
			writeError(w, http.StatusInternalServerError, "failed to export session")
			return
		}
		w.Header().Set("Content-Type", "application/stix+json; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=fusion-"+session.ID+".json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(bundle))
	case "cef":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=fusion-"+session.ID+".cef")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(h.cefExporter.Export(session)))
	default:
		writeJSON(w, http.StatusOK, session)
	}
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *RestHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// Helper functions

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDataPointNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidSessionID),
		errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrInvalidPatch),
		errors.Is(err, domain.ErrInvalidBulkKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConcurrentMutation):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("❌ Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
