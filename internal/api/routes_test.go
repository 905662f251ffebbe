package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/soltrace-engine/internal/heuristics"
	"github.com/rawblock/soltrace-engine/internal/report"
)

const watchedAddr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pipeline, err := heuristics.NewPipeline(heuristics.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return SetupRouter(pipeline)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
}

func TestAnalyzeFlow(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"transactions": [
			{"signature": "sig1", "slot": 10, "signer": "` + watchedAddr + `",
			 "accounts": ["` + watchedAddr + `", "other"], "programs": ["system"],
			 "lamports": 2000000000, "fee": 5000}
		],
		"intelFeeds": [
			{"source": "feed", "payload": "wallet ` + watchedAddr + ` flagged"}
		]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body: %s", w.Code, w.Body.String())
	}

	var rep report.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if len(rep.Correlations) != 1 || rep.Correlations[0].Signature != "sig1" {
		t.Errorf("correlations = %+v", rep.Correlations)
	}
	if len(rep.HighValueHits) != 1 {
		t.Errorf("expected 1 high-value hit, got %d", len(rep.HighValueHits))
	}

	// The run is now the served state.
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	if w2.Code != http.StatusOK {
		t.Errorf("report status = %d", w2.Code)
	}

	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+watchedAddr, nil))
	if w3.Code != http.StatusOK {
		t.Errorf("account status = %d, body: %s", w3.Code, w3.Body.String())
	}
}

func TestAnalyzeWithoutIntel(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"intelFeeds": []}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for empty intel, got %d", w.Code)
	}
}

func TestReportBeforeAnyRun(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 before first run, got %d", w.Code)
	}
}

func TestInvalidAccountAddress(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/not-base58!", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed address, got %d", w.Code)
	}
}

func TestFetchUnconfigured(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fetch/"+watchedAddr, nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without RPC endpoint, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("API_AUTH_TOKEN", "sekret")
	router := newTestRouter(t)

	// Health stays public.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health behind auth: %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/api/v1/report", nil))
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w2.Code)
	}

	w3 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	router.ServeHTTP(w3, req)
	if w3.Code != http.StatusForbidden {
		t.Errorf("expected 403 with bad token, got %d", w3.Code)
	}

	w4 := httptest.NewRecorder()
	req4 := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	req4.Header.Set("Authorization", "Bearer sekret")
	router.ServeHTTP(w4, req4)
	if w4.Code != http.StatusNotFound {
		t.Errorf("expected 404 (no run yet) with valid token, got %d", w4.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	if ok, _ := rl.allow("1.2.3.4"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := rl.allow("1.2.3.4"); !ok {
		t.Fatal("burst request denied")
	}
	ok, retryAfter := rl.allow("1.2.3.4")
	if ok {
		t.Fatal("request beyond burst allowed")
	}
	if retryAfter <= 0 || retryAfter > 2*time.Second {
		t.Errorf("retryAfter = %v", retryAfter)
	}

	// A different IP has its own bucket.
	if ok, _ := rl.allow("5.6.7.8"); !ok {
		t.Error("independent IP denied")
	}
}
