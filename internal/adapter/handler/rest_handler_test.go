package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/hive-corporation/fusion/internal/adapter/repository"
	"github.com/hive-corporation/fusion/internal/core/domain"
	"github.com/hive-corporation/fusion/internal/core/service"
)

func newTestRouter(t *testing.T, token string) http.Handler {
	t.Helper()
	sessions := service.NewSessionService(repository.NewMemoryRepository(), nil)
	importer := service.NewImporter(sessions, service.DefaultImporterConfig())

	router := mux.NewRouter()
	NewRestHandler(sessions, importer).RegisterRoutes(router)
	router.Use(AuthMiddleware(token))
	return router
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler) domain.Session {
	t.Helper()
	w := doJSON(t, h, "POST", "/api/v1/sessions", map[string]interface{}{
		"title":      "Acme recon",
		"targetType": "organization",
		"target":     "acme.example",
		"tags":       []string{"case-42"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var s domain.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, "secret")

	w := doJSON(t, h, "GET", "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 without a token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestRouter(t, "secret")

	w := doJSON(t, h, "GET", "/api/v1/sessions", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with a wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with the token, got %d", w.Code)
	}
}

func TestCreateSession_Validation(t *testing.T) {
	h := newTestRouter(t, "")

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing title", map[string]interface{}{"targetType": "person"}},
		{"unknown target type", map[string]interface{}{"title": "x", "targetType": "planet"}},
		{"unknown priority", map[string]interface{}{"title": "x", "priority": "urgent"}},
		{"malformed json", `{"title": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, "POST", "/api/v1/sessions", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)

	if s.Priority != domain.PriorityMedium || s.Status != domain.StatusActive || s.Version != 0 {
		t.Errorf("unexpected defaults %+v", s)
	}

	w := doJSON(t, h, "GET", "/api/v1/sessions/"+s.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = doJSON(t, h, "PATCH", "/api/v1/sessions/"+s.ID, map[string]interface{}{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated domain.Session
	json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Status != domain.StatusCompleted || updated.Version != 1 {
		t.Errorf("unexpected update result %+v", updated)
	}

	w = doJSON(t, h, "GET", "/api/v1/sessions?limit=10", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Errorf("list: unexpected response %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "DELETE", "/api/v1/sessions/"+s.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = doJSON(t, h, "GET", "/api/v1/sessions/"+s.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestGetSession_ErrorMapping(t *testing.T) {
	h := newTestRouter(t, "")

	w := doJSON(t, h, "GET", "/api/v1/sessions/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid id: expected 400, got %d", w.Code)
	}

	w = doJSON(t, h, "GET", "/api/v1/sessions/6f1c2f9e-1d7b-4c55-9a3e-0d2b8e6f7a10", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}

	w = doJSON(t, h, "GET", "/api/v1/sessions?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestDataPointLifecycle(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)
	base := "/api/v1/sessions/" + s.ID + "/datapoints"

	w := doJSON(t, h, "POST", base, map[string]interface{}{
		"type":       "email",
		"key":        "Contact",
		"value":      "admin@acme.example",
		"confidence": 85,
		"source":     map[string]interface{}{"toolName": "Manual"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added struct {
		DataPoint domain.DataPoint `json:"dataPoint"`
		Version   int64            `json:"version"`
		Analytics domain.Analytics `json:"analytics"`
	}
	json.Unmarshal(w.Body.Bytes(), &added)
	if added.DataPoint.ID == "" || added.Version != 1 || added.Analytics.TotalDataPoints != 1 {
		t.Fatalf("unexpected add response %+v", added)
	}

	w = doJSON(t, h, "GET", base+"?q=ACME", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Errorf("search: unexpected response %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, "PATCH", base+"/"+added.DataPoint.ID, map[string]interface{}{"confidence": 150})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range confidence: expected 400, got %d", w.Code)
	}

	w = doJSON(t, h, "PATCH", base+"/"+added.DataPoint.ID, map[string]interface{}{"confidence": 40, "value": "ops@acme.example"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var patched domain.Session
	json.Unmarshal(w.Body.Bytes(), &patched)
	if patched.DataPoints[0].Confidence != 40 || patched.DataPoints[0].Value != "ops@acme.example" {
		t.Errorf("patch not applied: %+v", patched.DataPoints[0])
	}
	if patched.Analytics.ConfidenceScore != 40 {
		t.Errorf("analytics not recomputed, confidence score %d", patched.Analytics.ConfidenceScore)
	}

	w = doJSON(t, h, "DELETE", base+"/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown data point: expected 404, got %d", w.Code)
	}

	w = doJSON(t, h, "DELETE", base+"/"+added.DataPoint.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", w.Code)
	}
	var removed domain.Session
	json.Unmarshal(w.Body.Bytes(), &removed)
	if removed.Analytics.TotalDataPoints != 0 || removed.Version != 3 {
		t.Errorf("unexpected state after remove: %d points, version %d", removed.Analytics.TotalDataPoints, removed.Version)
	}
}

func TestImport(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)
	path := "/api/v1/sessions/" + s.ID + "/import"

	harvester := `{"emails": ["info@acme.example"], "hosts": ["www.acme.example:192.0.2.10"]}`
	w := doJSON(t, h, "POST", path, map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "harvest.json", "format": "structured-record", "source": "recon", "data": base64.StdEncoding.EncodeToString([]byte(harvester)), "encoding": "base64"},
			{"name": "targets.txt", "format": "line-list", "source": "line-list", "data": "a.com\nb.org\n"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result service.BatchResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Successful != 2 || result.Added != 5 || result.Analytics == nil {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestImport_SingleMalformedItem(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)

	w := doJSON(t, h, "POST", "/api/v1/sessions/"+s.ID+"/import", map[string]interface{}{
		"items": []map[string]interface{}{
			{"name": "broken.xml", "format": "markup-tree", "data": "<a>"},
		},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	var result service.BatchResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("expected the batch summary, got %+v", result)
	}
}

func TestImport_RequestValidation(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)
	path := "/api/v1/sessions/" + s.ID + "/import"

	tests := []struct {
		name string
		body interface{}
	}{
		{"no items", map[string]interface{}{"items": []interface{}{}}},
		{"unknown format", map[string]interface{}{"items": []map[string]interface{}{{"format": "yaml", "data": "x"}}}},
		{"bad base64", map[string]interface{}{"items": []map[string]interface{}{{"format": "line-list", "data": "!!", "encoding": "base64"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, "POST", path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestImportBulk(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)
	path := "/api/v1/sessions/" + s.ID + "/bulk"

	w := doJSON(t, h, "POST", path, map[string]interface{}{
		"kind":           "domain",
		"data":           "a.com\r\nnot a domain!\r\n\r\nb.org",
		"autoConfidence": true,
		"tags":           []string{"case-42"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result service.BatchResult
	json.Unmarshal(w.Body.Bytes(), &result)
	if result.Total != 3 || result.Added != 3 {
		t.Errorf("unexpected result %+v", result)
	}

	w = doJSON(t, h, "POST", path, map[string]interface{}{"kind": "planet", "data": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: expected 400, got %d", w.Code)
	}
}

func TestAnalyticsAndExport(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)
	doJSON(t, h, "POST", "/api/v1/sessions/"+s.ID+"/datapoints", map[string]interface{}{
		"type": "ip", "key": "Host", "value": "192.0.2.10", "confidence": 80,
	})

	w := doJSON(t, h, "GET", "/api/v1/sessions/"+s.ID+"/analytics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"totalDataPoints":1`) {
		t.Errorf("analytics: unexpected response %d %s", w.Code, w.Body.String())
	}

	tests := []struct {
		format      string
		code        int
		contentType string
		contains    string
	}{
		{"stix", http.StatusOK, "application/stix+json", "[ipv4-addr:value = '192.0.2.10']"},
		{"cef", http.StatusOK, "text/plain", "CEF:0|Hive|Fusion|"},
		{"", http.StatusOK, "application/json", `"dataPoints"`},
		{"pdf", http.StatusBadRequest, "application/json", "invalid 'format'"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			w := doJSON(t, h, "GET", "/api/v1/sessions/"+s.ID+"/export?format="+tt.format, nil)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, w.Code)
			}
			if !strings.HasPrefix(w.Header().Get("Content-Type"), tt.contentType) {
				t.Errorf("expected content type %s, got %s", tt.contentType, w.Header().Get("Content-Type"))
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("expected body to contain %q, got %s", tt.contains, w.Body.String())
			}
		})
	}
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, make(chan int))

	if w.Code != http.StatusOK {
		t.Errorf("status should be written before encoding, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body on encoding failure, got %q", w.Body.String())
	}
}

func TestDataPoint_EnrichmentRiskScoreRange(t *testing.T) {
	h := newTestRouter(t, "")
	s := createSession(t, h)
	base := "/api/v1/sessions/" + s.ID + "/datapoints"

	w := doJSON(t, h, "POST", base, map[string]interface{}{
		"type": "text", "value": "note",
		"enrichment": map[string]interface{}{"riskScore": 1e300},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range risk score on add: expected 400, got %d", w.Code)
	}

	w = doJSON(t, h, "POST", base, map[string]interface{}{
		"type": "text", "value": "note",
		"enrichment": map[string]interface{}{"riskScore": 40, "verified": true},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added struct {
		DataPoint domain.DataPoint `json:"dataPoint"`
		Analytics domain.Analytics `json:"analytics"`
	}
	json.Unmarshal(w.Body.Bytes(), &added)
	if added.Analytics.RiskAssessment.Score != 40 {
		t.Errorf("expected enrichment risk 40 in the score, got %d", added.Analytics.RiskAssessment.Score)
	}

	w = doJSON(t, h, "PATCH", base+"/"+added.DataPoint.ID, map[string]interface{}{
		"enrichment": map[string]interface{}{"riskScore": -5},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range risk score on patch: expected 400, got %d", w.Code)
	}
}
