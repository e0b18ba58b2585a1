package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tierd/internal/domain"
	"tierd/pkg/types"
)

type mockService struct {
	ready  bool
	models []types.Model
	genErr error
	block  bool
	last   types.GenerateRequest
}

func (m *mockService) Ready() bool { return m.ready }
func (m *mockService) ListModels() types.ModelsResponse {
	return types.ModelsResponse{Models: append([]types.Model(nil), m.models...)}
}
func (m *mockService) GetModelInfo(id string) (types.ModelInfo, error) {
	for _, mm := range m.models {
		if mm.ID == id {
			return types.ModelInfo{Model: mm, Tier: "ram", Loaded: true}, nil
		}
	}
	return types.ModelInfo{}, domain.ErrUnknownModel(id)
}
func (m *mockService) SelectOptimalModel(req types.SelectRequest) (types.Selection, error) {
	return types.Selection{Model: "gpt2-small", Tier: "ram"}, nil
}
func (m *mockService) GetMemoryStatus() types.MemoryStatus {
	return types.MemoryStatus{Tiers: []types.TierUsage{{Tier: "ram", LimitBytes: 6 << 30}}}
}
func (m *mockService) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	m.last = req
	if m.block {
		<-ctx.Done()
		return types.GenerateResponse{}, ctx.Err()
	}
	if m.genErr != nil {
		return types.GenerateResponse{}, m.genErr
	}
	return types.GenerateResponse{Model: "gpt2-small", Text: "hi", Tier: "ram"}, nil
}
func (m *mockService) ManageModelLoading(ctx context.Context, req types.ManageRequest) (types.ManageResponse, error) {
	if req.Action == "" {
		return types.ManageResponse{}, domain.ErrInvalidRequest("action is required")
	}
	return types.ManageResponse{Action: req.Action}, nil
}
func (m *mockService) HotSwapModels(ctx context.Context, req types.HotSwapRequest) (types.HotSwapResponse, error) {
	return types.HotSwapResponse{ID: "s1", Complete: true}, nil
}
func (m *mockService) BatchInference(ctx context.Context, req types.BatchRequest) (types.BatchResponse, error) {
	return types.BatchResponse{Succeeded: len(req.Prompts)}, nil
}
func (m *mockService) CreateAgentSession(req types.SessionRequest) (types.SessionResponse, error) {
	return types.SessionResponse{SessionID: req.SessionID, Status: "created"}, nil
}
func (m *mockService) GetSystemStatus() types.SystemStatus {
	return types.SystemStatus{Status: "healthy", Ready: m.ready}
}
func (m *mockService) OptimizeMemory(ctx context.Context, req types.OptimizeRequest) (types.OptimizeResponse, error) {
	return types.OptimizeResponse{Strategy: req.Strategy}, nil
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body: %v (%q)", err, w.Body.String())
	}
	return e
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.Model{{ID: "m1"}, {ID: "m2"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("models len=%d", len(body.Models))
	}
}

func TestModelInfoNotFound(t *testing.T) {
	r := NewMux(&mockService{models: []types.Model{{ID: "m1"}}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if e := decodeError(t, w); e.Kind != string(domain.KindUnknownModel) || e.Code != 404 {
		t.Fatalf("unexpected error body: %+v", e)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models/m1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGenerateOK(t *testing.T) {
	svc := &mockService{}
	w := postJSON(NewMux(svc), "/v1/generate", `{"prompt":"hi","thinking_mode":"future"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Model != "gpt2-small" || svc.last.ThinkingMode != "future" {
		t.Fatalf("resp=%+v req=%+v", resp, svc.last)
	}
}

func TestGenerateErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   domain.Kind
		retry  bool
	}{
		{domain.ErrBusy("gpt2-small"), http.StatusTooManyRequests, domain.KindBusy, true},
		{domain.ErrInsufficientCapacity("gpt-j-6b", domain.TierSwap, "full"), http.StatusInsufficientStorage, domain.KindInsufficientCapacity, true},
		{domain.ErrExceedsTierCeiling("llama-7b", domain.TierRAM, "too big"), http.StatusUnprocessableEntity, domain.KindExceedsTierCeiling, false},
		{domain.ErrNoSuitableModel("none"), http.StatusUnprocessableEntity, domain.KindNoSuitableModel, false},
		{domain.ErrInvalidRequest("prompt is required"), http.StatusBadRequest, domain.KindInvalidRequest, false},
		{io.EOF, http.StatusInternalServerError, "", false},
	}
	for _, c := range cases {
		w := postJSON(NewMux(&mockService{genErr: c.err}), "/v1/generate", `{"prompt":"hi"}`)
		if w.Code != c.status {
			t.Fatalf("%v: status=%d want %d", c.err, w.Code, c.status)
		}
		e := decodeError(t, w)
		if e.Kind != string(c.kind) || e.Retryable != c.retry || e.Code != c.status {
			t.Fatalf("%v: body=%+v", c.err, e)
		}
	}
}

func TestGenerateRejectsBadBodies(t *testing.T) {
	h := NewMux(&mockService{})
	if w := postJSON(h, "/v1/generate", "not-json"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status=%d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("media type status=%d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("mixed-case content type status=%d", w.Code)
	}

	SetMaxBodyBytes(64)
	defer SetMaxBodyBytes(0)
	big := `{"prompt":"` + strings.Repeat("a", 200) + `"}`
	if w := postJSON(h, "/v1/generate", big); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for too-large body, got %d", w.Code)
	}
}

func TestGenerateTimeout(t *testing.T) {
	SetRequestTimeout(50 * time.Millisecond)
	defer SetRequestTimeout(0)
	w := postJSON(NewMux(&mockService{block: true}), "/v1/generate", `{"prompt":"x"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 on timeout, got %d", w.Code)
	}
}

func TestShutdownCancelsRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	defer SetBaseContext(nil)
	time.AfterFunc(20*time.Millisecond, cancel)
	w := postJSON(NewMux(&mockService{block: true}), "/v1/generate", `{"prompt":"x"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after shutdown, got %d", w.Code)
	}
}

func TestPostRoutes(t *testing.T) {
	h := NewMux(&mockService{})
	cases := []struct {
		path, body string
		status     int
	}{
		{"/v1/select", `{"prompt":"classify"}`, 200},
		{"/v1/manage", `{"action":"status"}`, 200},
		{"/v1/manage", `{}`, 400},
		{"/v1/hot-swap", `{"source":"a","target":"b"}`, 200},
		{"/v1/batch", `{"prompts":["a","b"]}`, 200},
		{"/v1/sessions", `{"session_id":"s"}`, 200},
		{"/v1/optimize", `{"strategy":"balanced"}`, 200},
	}
	for _, c := range cases {
		if w := postJSON(h, c.path, c.body); w.Code != c.status {
			t.Fatalf("%s %s: status=%d body=%s", c.path, c.body, w.Code, w.Body.String())
		}
	}
}

func TestGetRoutes(t *testing.T) {
	h := NewMux(&mockService{ready: true})
	for _, p := range []string{"/v1/memory", "/v1/system", "/healthz", "/readyz", "/metrics"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status=%d", p, w.Code)
		}
	}
}

func TestReadyzNotReady(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{ready: true})
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected CORS header %q", got)
	}
}
