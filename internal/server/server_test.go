package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/iwvelando/budget-allocation/internal/allocation"
	"github.com/iwvelando/budget-allocation/internal/config"
	"github.com/iwvelando/budget-allocation/internal/profiles"
	"github.com/iwvelando/budget-allocation/internal/session"
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/textmatch"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	registry, err := profiles.Default()
	if err != nil {
		t.Fatalf("failed to load profiles: %v", err)
	}
	engine := allocation.NewEngine(zap.NewNop(), textmatch.DefaultAliasTable())
	return NewHandler(zap.NewNop(), engine, registry, session.NewMemoryStore(time.Hour), opts)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodePreview(t *testing.T, rr *httptest.ResponseRecorder) previewResponse {
	t.Helper()
	var resp previewResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func retailPlan() config.Plan {
	return config.Plan{
		ProfileID:   "retail",
		TotalBudget: 100_000_000,
		CostLines: []config.PlanCostLine{
			{ID: "cl-arch", Section: "CONSULTANTS", Activity: "Architect"},
			{ID: "cl-ie", Section: "CONSULTANTS", Activity: "Interior Designer", BudgetCents: 250_000},
			{ID: "cl-hc", Section: "CONSTRUCTION", Activity: "Head Contractor"},
		},
	}
}

func createPreview(t *testing.T, handler http.Handler) previewResponse {
	t.Helper()
	rr := doJSON(t, handler, http.MethodPost, "/api/previews", retailPlan())
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	return decodePreview(t, rr)
}

func TestHandleVersion(t *testing.T) {
	handler := newTestHandler(t, Options{Version: "1.2.3"})

	rr := doJSON(t, handler, http.MethodGet, "/api/version", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp["version"])
	}
}

func TestHandleVersionMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rr := doJSON(t, handler, http.MethodPost, "/api/version", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleProfiles(t *testing.T) {
	handler := newTestHandler(t, Options{})

	rr := doJSON(t, handler, http.MethodGet, "/api/profiles", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp profilesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Profiles) != 7 {
		t.Fatalf("expected 7 profiles, got %d", len(resp.Profiles))
	}
	if resp.Classifications["6"] != "retail" {
		t.Fatalf("expected classification 6 to map to retail, got %q", resp.Classifications["6"])
	}
}

func TestCreatePreview(t *testing.T) {
	handler := newTestHandler(t, Options{})
	resp := createPreview(t, handler)

	if resp.ID == "" || resp.Version != 1 {
		t.Fatalf("unexpected session identity %q v%d", resp.ID, resp.Version)
	}
	if resp.ProfileID != "retail" {
		t.Fatalf("expected retail profile, got %s", resp.ProfileID)
	}
	if len(resp.Lines) != 3 {
		t.Fatalf("expected 3 preview lines, got %d: %+v", len(resp.Lines), resp.Lines)
	}

	arch := resp.Lines[0]
	if arch.CostLineID != "cl-arch" || arch.Status != constants.StatusMatched || arch.Percent != 3.5 || arch.AmountCents != 3_500_000 {
		t.Fatalf("unexpected architect line %+v", arch)
	}
	if resp.Lines[1].ExistingBudgetCents != 250_000 {
		t.Fatalf("expected existing budget carried through, got %+v", resp.Lines[1])
	}
	if resp.GrandTotalPercent != 81 {
		t.Fatalf("expected grand total 81, got %v", resp.GrandTotalPercent)
	}
	if len(resp.SectionTotals) != len(constants.Sections) {
		t.Fatalf("expected totals for every section, got %d", len(resp.SectionTotals))
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}

	rr := doJSON(t, handler, http.MethodGet, "/api/previews/"+resp.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on fetch, got %d", rr.Code)
	}
	if fetched := decodePreview(t, rr); len(fetched.Lines) != 3 || fetched.Version != 1 {
		t.Fatalf("unexpected fetched preview %+v", fetched)
	}
}

func TestCreatePreviewErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"Malformed JSON", `{"profileId":`, http.StatusBadRequest},
		{"Negative budget", `{"profileId":"retail","totalBudget":-5}`, http.StatusBadRequest},
		{"Missing profile selector", `{"totalBudget":100}`, http.StatusBadRequest},
		{"Unknown profile", `{"profileId":"stadium","totalBudget":100}`, http.StatusNotFound},
		{"Unmapped classification", `{"classification":"10a","totalBudget":100}`, http.StatusNotFound},
	}

	handler := newTestHandler(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/previews", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Fatalf("expected status %d, got %d: %s", tt.expected, rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), `"error"`) {
				t.Fatalf("expected error body, got %s", rr.Body.String())
			}
		})
	}
}

func TestCreatePreviewBodyTooLarge(t *testing.T) {
	handler := newTestHandler(t, Options{MaxBodyBytes: 64})

	rr := doJSON(t, handler, http.MethodPost, "/api/previews", retailPlan())
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPreviewEditFlow(t *testing.T) {
	handler := newTestHandler(t, Options{})
	created := createPreview(t, handler)
	base := "/api/previews/" + created.ID

	// Raising the architect takes the difference from the interior designer.
	rr := doJSON(t, handler, http.MethodPost, base+"/adjust", adjustRequest{ExpectedVersion: 1, Index: 0, Percent: 4.5})
	if rr.Code != http.StatusOK {
		t.Fatalf("adjust: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	adjusted := decodePreview(t, rr)
	if adjusted.Version != 2 || adjusted.Lines[0].Percent != 4.5 || adjusted.Lines[1].Percent != 0.5 {
		t.Fatalf("adjust: unexpected preview v%d %+v", adjusted.Version, adjusted.Lines)
	}
	if adjusted.Lines[1].AmountCents != 500_000 {
		t.Fatalf("adjust: expected recomputed amount 500000, got %d", adjusted.Lines[1].AmountCents)
	}

	// A client still holding version 1 must not overwrite version 2.
	rr = doJSON(t, handler, http.MethodPost, base+"/adjust", adjustRequest{ExpectedVersion: 1, Index: 0, Percent: 1})
	if rr.Code != http.StatusConflict {
		t.Fatalf("stale adjust: expected status 409, got %d", rr.Code)
	}

	rr = doJSON(t, handler, http.MethodPost, base+"/lock", lockRequest{ExpectedVersion: 2, Index: 1, Locked: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("lock: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if locked := decodePreview(t, rr); !locked.Lines[1].Locked || locked.Version != 3 {
		t.Fatalf("lock: unexpected preview %+v", locked)
	}

	// With the only other consultant locked the freed percent has nowhere to go.
	rr = doJSON(t, handler, http.MethodPost, base+"/remove", removeRequest{ExpectedVersion: 3, Index: 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("remove: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	removed := decodePreview(t, rr)
	if removed.Lines[0].Percent != 0 || removed.Lines[0].AmountCents != 0 || removed.Lines[1].Percent != 0.5 {
		t.Fatalf("remove: unexpected lines %+v", removed.Lines)
	}
	if len(removed.Removed) != 1 || removed.Removed[0] != 0 {
		t.Fatalf("remove: expected removed [0], got %v", removed.Removed)
	}

	rr = doJSON(t, handler, http.MethodPost, base+"/budget", budgetRequest{ExpectedVersion: 4, TotalBudgetCents: 200_000_000})
	if rr.Code != http.StatusOK {
		t.Fatalf("budget: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	rebudgeted := decodePreview(t, rr)
	if rebudgeted.TotalBudgetCents != 200_000_000 || rebudgeted.Lines[2].AmountCents != 152_000_000 {
		t.Fatalf("budget: unexpected preview %+v", rebudgeted)
	}
	if rebudgeted.Lines[2].Percent != 76 {
		t.Fatalf("budget: percents must not change, got %v", rebudgeted.Lines[2].Percent)
	}
}

func TestPreviewEditErrors(t *testing.T) {
	handler := newTestHandler(t, Options{})
	created := createPreview(t, handler)
	base := "/api/previews/" + created.ID

	tests := []struct {
		name     string
		path     string
		payload  interface{}
		expected int
	}{
		{"Index out of range", base + "/adjust", adjustRequest{ExpectedVersion: 1, Index: 9, Percent: 1}, http.StatusBadRequest},
		{"Negative index", base + "/lock", lockRequest{ExpectedVersion: 1, Index: -1, Locked: true}, http.StatusBadRequest},
		{"Percent above 100", base + "/adjust", adjustRequest{ExpectedVersion: 1, Index: 0, Percent: 150}, http.StatusBadRequest},
		{"Negative budget", base + "/budget", budgetRequest{ExpectedVersion: 1, TotalBudgetCents: -1}, http.StatusBadRequest},
		{"Unknown session", "/api/previews/missing/remove", removeRequest{ExpectedVersion: 1}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, handler, http.MethodPost, tt.path, tt.payload)
			if rr.Code != tt.expected {
				t.Fatalf("expected status %d, got %d: %s", tt.expected, rr.Code, rr.Body.String())
			}
		})
	}

	// Rejected edits leave the session untouched.
	rr := doJSON(t, handler, http.MethodGet, base, nil)
	if current := decodePreview(t, rr); current.Version != 1 {
		t.Fatalf("expected version 1 after rejected edits, got %d", current.Version)
	}
}

func TestDeletePreview(t *testing.T) {
	handler := newTestHandler(t, Options{})
	created := createPreview(t, handler)

	rr := doJSON(t, handler, http.MethodDelete, "/api/previews/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	rr = doJSON(t, handler, http.MethodGet, "/api/previews/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", rr.Code)
	}
}
