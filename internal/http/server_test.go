package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := services.NewTrackerService(repo, nil)
	s := NewServer(":0", svc, Options{DefaultUserID: "local", CacheTTL: time.Minute})
	t.Cleanup(func() {
		s.rateLimiter.stop()
		s.shutdownOnce.Do(func() { close(s.stopCacheCleanup) })
		svc.Close()
	})
	return s
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func createTransaction(t *testing.T, s *Server, amount, kind, date string) map[string]any {
	t.Helper()

	body := fmt.Sprintf(`{"amount":%q,"description":"test","category_id":"1","date":%q,"kind":%q}`,
		amount, date, kind)
	rec := doRequest(t, s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := createTransaction(t, s, "42.50", "expense", "2024-03-15")
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created response missing id: %v", created)
	}
	amount := created["amount"].(map[string]any)
	if amount["cents"].(float64) != 4250 || amount["decimal"].(string) != "42.50" {
		t.Fatalf("amount = %v", amount)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/transactions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/transactions/"+id,
		`{"amount":"50.00","description":"updated","category_id":"1","date":"2024-03-16","kind":"expense"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/transactions/"+id, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/transactions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad amount", `{"amount":"abc","description":"x","category_id":"1","date":"2024-01-01","kind":"expense"}`},
		{"bad date", `{"amount":"10.00","description":"x","category_id":"1","date":"01/01/2024","kind":"expense"}`},
		{"bad kind", `{"amount":"10.00","description":"x","category_id":"1","date":"2024-01-01","kind":"transfer"}`},
		{"empty description", `{"amount":"10.00","description":"","category_id":"1","date":"2024-01-01","kind":"expense"}`},
		{"unknown field", `{"amount":"10.00","description":"x","category_id":"1","date":"2024-01-01","kind":"expense","extra":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStatsSummaryReflectsWrites(t *testing.T) {
	s := newTestServer(t)

	// Prime the cache with an empty snapshot.
	rec := doRequest(t, s, http.MethodGet, "/api/stats/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d", rec.Code)
	}

	createTransaction(t, s, "20.00", "income", "2024-01-05")
	createTransaction(t, s, "0.50", "expense", "2024-01-15")

	rec = doRequest(t, s, http.MethodGet, "/api/stats/summary?month=1&year=2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary after writes: status %d", rec.Code)
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalIncome.Cents != 2000 || resp.TotalExpenses.Cents != 50 {
		t.Fatalf("summary = %+v, writes must invalidate the cached snapshot", resp)
	}
	if resp.NetAmount.Cents != 1950 || resp.MonthlyExpenses.Cents != 50 {
		t.Fatalf("summary = %+v", resp)
	}
}

func TestStatsTopCategoriesLimit(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "3.00", "expense", "2024-01-01")
	body := `{"amount":"1.00","description":"bus","category_id":"2","date":"2024-01-02","kind":"expense"}`
	if rec := doRequest(t, s, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/stats/top-categories?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp []rankedCategoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("limit=1 should yield 1 entry, got %d", len(resp))
	}
	if resp[0].Name != "Food & Dining" || resp[0].Amount.Cents != 300 {
		t.Fatalf("top category = %+v", resp[0])
	}
}

func TestStatsTrendLength(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/stats/trend?months=6", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp []trendBucketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 6 {
		t.Fatalf("expected 6 buckets even with no data, got %d", len(resp))
	}
}

func TestBudgetStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/budgets",
		`{"category_id":"1","limit":"400.00","alert_threshold":80,"month":0,"year":2024}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: status %d, body %s", rec.Code, rec.Body.String())
	}

	createTransaction(t, s, "350.00", "expense", "2024-01-10")

	rec = doRequest(t, s, http.MethodGet, "/api/stats/budgets?month=1&year=2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp []budgetStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 status, got %d", len(resp))
	}
	if resp[0].Percentage != 88 || !resp[0].IsAlert {
		t.Fatalf("budget status = %+v", resp[0])
	}
}

func TestBudgetCreateRejectsZeroLimit(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/budgets",
		`{"category_id":"1","limit":"0","alert_threshold":80,"month":0,"year":2024}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestRecurringProjectionEndpoint(t *testing.T) {
	s := newTestServer(t)

	rules := []string{
		`{"amount":"1200.00","description":"insurance","category_id":"5","frequency":"yearly","start_date":"2024-01-01"}`,
		`{"amount":"15.00","description":"lunch","category_id":"1","frequency":"daily","start_date":"2024-01-01"}`,
	}
	for _, body := range rules {
		if rec := doRequest(t, s, http.MethodPost, "/api/recurring", body); rec.Code != http.StatusCreated {
			t.Fatalf("create rule: status %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/stats/recurring-projection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	var resp projectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MonthlyTotal.Cents != 120000 {
		t.Fatalf("projection = %d cents, daily rules must be excluded", resp.MonthlyTotal.Cents)
	}
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "42.50", "expense", "2024-03-15")

	rec := doRequest(t, s, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "expenses_") {
		t.Fatalf("content disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if lines[0] != `"Date","Description","Category","Amount","Type"` {
		t.Fatalf("header = %s", lines[0])
	}
}

func TestUserScopingViaHeader(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "10.00", "expense", "2024-01-01")

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set(userHeader, "someone-else")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	var resp []transactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 0 {
		t.Fatalf("other user should see no transactions, got %d", len(resp))
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/transactions", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options header")
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	s := newTestServer(t)
	s.rateLimiter.perMinute = 2

	body := `{"amount":"1.00","description":"x","category_id":"1","date":"2024-01-01","kind":"expense"}`
	var last int
	for i := 0; i < 3; i++ {
		rec := doRequest(t, s, http.MethodPost, "/api/transactions", body)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third mutation should be rate limited, got %d", last)
	}

	// Reads are unaffected.
	if rec := doRequest(t, s, http.MethodGet, "/api/transactions", ""); rec.Code != http.StatusOK {
		t.Fatalf("read should bypass rate limit, got %d", rec.Code)
	}
}
