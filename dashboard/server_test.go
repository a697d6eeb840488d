package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/ekta/dataset"
	"github.com/spektr-org/ekta/history"
)

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	return NewServer(newTestService(t, opts), nil).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestServerHealth(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := do(t, h, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" || body["rows"] != float64(4) {
		t.Errorf("body: %v", body)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	missing := NewServer(NewService(Options{Path: filepath.Join(t.TempDir(), "none.csv")}), nil).Handler()
	if rec := do(t, missing, "GET", "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("missing dataset health = %d", rec.Code)
	}
}

func TestServerQuery(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := do(t, h, "POST", "/api/query", `{"query":"top 2 states","ageGroup":"total"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp Response
	decode(t, rec, &resp)
	if len(resp.Panels) != 1 || len(resp.Panels[0].Result.Groups) != 2 {
		t.Fatalf("panels: %+v", resp.Panels)
	}
	if resp.Panels[0].Result.Groups[0].Key != "Uttar Pradesh" {
		t.Errorf("leader = %s", resp.Panels[0].Result.Groups[0].Key)
	}
}

func TestServerQueryErrors(t *testing.T) {
	h := newTestServer(t, Options{})

	rec := do(t, h, "POST", "/api/query", `{"query":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank query status = %d", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["code"] != float64(400) || body["error"] == "" {
		t.Errorf("error body: %v", body)
	}

	if rec := do(t, h, "POST", "/api/query", `{not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d", rec.Code)
	}
	if rec := do(t, h, "GET", "/api/nowhere", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}
}

func TestServerOptions(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := do(t, h, "GET", "/api/options?state=bihar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var opts dataset.FilterOptions
	decode(t, rec, &opts)
	if len(opts.States) != 3 {
		t.Errorf("states: %v", opts.States)
	}
	if strings.Join(opts.Districts, ",") != "Gaya,Patna" {
		t.Errorf("districts: %v", opts.Districts)
	}
}

func TestServerExports(t *testing.T) {
	h := newTestServer(t, Options{})

	rec := do(t, h, "GET", "/api/export.csv?query=top+2+states", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Uttar Pradesh,390") {
		t.Errorf("csv: %q", rec.Body.String())
	}
	if rec := do(t, h, "GET", "/api/export.csv?query=top+2+states&panel=3", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad panel status = %d", rec.Code)
	}

	rec = do(t, h, "GET", "/api/export.xlsx?query=top+2+states&state=Bihar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d", rec.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 1 {
		t.Errorf("sheets: %v", sheets)
	}
}

func TestServerHistoryAndInvalidate(t *testing.T) {
	store, err := history.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	h := newTestServer(t, Options{History: store})

	do(t, h, "POST", "/api/query", `{"query":"top 3 districts"}`)
	rec := do(t, h, "GET", "/api/history?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var body struct {
		Entries []history.Entry `json:"entries"`
		Enabled bool            `json:"enabled"`
	}
	decode(t, rec, &body)
	if !body.Enabled || len(body.Entries) != 1 || body.Entries[0].Level != "district" {
		t.Errorf("history: %+v", body)
	}
	if rec := do(t, h, "GET", "/api/history?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", rec.Code)
	}

	if rec := do(t, h, "POST", "/api/cache/invalidate", ""); rec.Code != http.StatusOK {
		t.Errorf("invalidate status = %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RequestIDMiddleware(RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Errorf("request id = %q", rec.Header().Get(RequestIDHeader))
	}
}
