package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taktsiv/internal/core"
	"taktsiv/internal/ledger"
	"taktsiv/internal/storage"
	"taktsiv/internal/voice"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewStore(storage.NewMemoryDriver())
	service, err := ledger.NewService(context.Background(), store, nil, logger)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	intake := voice.NewIntake(service, logger, voice.Options{
		ListenTimeout: time.Second,
		SettleDelay:   50 * time.Millisecond,
		CountdownTick: 20 * time.Millisecond,
	})

	srv := NewServer(":0", service, intake, logger, Options{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestPostExpenseAndBalances(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses",
		`{"category":"דלק","amount":"52.30","note":"מילוי מלא"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/expenses status = %d, body %s", rec.Code, rec.Body.String())
	}
	expense := decodeBody[core.Expense](t, rec)
	if expense.ID == "" {
		t.Error("expense ID is empty")
	}
	if expense.Amount.Agorot != 5230 {
		t.Errorf("amount = %d agorot, want 5230", expense.Amount.Agorot)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/balances", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/balances status = %d", rec.Code)
	}
	resp := decodeBody[balancesResponse](t, rec)
	if len(resp.Balances) != len(core.Categories()) {
		t.Fatalf("balances entries = %d, want %d", len(resp.Balances), len(core.Categories()))
	}
	for _, entry := range resp.Balances {
		if entry.Category != core.CategoryFuel {
			continue
		}
		want := core.FromShekels(1200).Sub(core.Money{Agorot: 5230})
		if entry.Remaining != want {
			t.Errorf("fuel remaining = %v, want %v", entry.Remaining, want)
		}
		if entry.Negative {
			t.Error("fuel balance flagged negative")
		}
	}
}

func TestPostExpenseValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown category", `{"category":"ריהוט","amount":"10"}`},
		{"zero amount", `{"category":"דלק","amount":"0"}`},
		{"negative amount", `{"category":"דלק","amount":"-5"}`},
		{"malformed body", `{"category":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/expenses", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestDeleteExpense(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses",
		`{"category":"סופר","amount":"80"}`)
	expense := decodeBody[core.Expense](t, rec)

	rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+expense.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+expense.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", "")
	if got := decodeBody[[]core.Expense](t, rec); len(got) != 0 {
		t.Errorf("expenses after delete = %d, want 0", len(got))
	}
}

func TestCategoryReset(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"דלק","amount":"100"}`)
	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"סופר","amount":"200"}`)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories/דלק/reset", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reset status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", "")
	expenses := decodeBody[[]core.Expense](t, rec)
	if len(expenses) != 1 || expenses[0].Category != core.CategoryGroceries {
		t.Errorf("expenses after reset = %+v, want only groceries", expenses)
	}
}

func TestAllocationUpdate(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/allocation", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET allocation status = %d", rec.Code)
	}

	// An incomplete mapping must be rejected.
	rec = doJSON(t, srv, http.MethodPut, "/api/allocation", `{"דלק":"1500"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("partial PUT status = %d, want 400", rec.Code)
	}

	full := map[string]string{}
	for _, c := range core.Categories() {
		full[c.String()] = "100"
	}
	body, _ := json.Marshal(full)
	rec = doJSON(t, srv, http.MethodPut, "/api/allocation", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("full PUT status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Allocation](t, rec)
	if updated[core.CategoryFuel] != core.FromShekels(100) {
		t.Errorf("fuel allocation = %v, want ₪100", updated[core.CategoryFuel])
	}
}

func TestRolloverAndReports(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"מסעדות","amount":"120"}`)

	rec := doJSON(t, srv, http.MethodPost, "/api/rollover", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("rollover status = %d, body %s", rec.Code, rec.Body.String())
	}
	report := decodeBody[core.MonthlyReport](t, rec)
	if !core.ValidMonthKey(report.Month) {
		t.Fatalf("report month %q is not a month key", report.Month)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports", "")
	listing := decodeBody[reportsResponse](t, rec)
	if len(listing.Months) != 1 || listing.Months[0] != report.Month {
		t.Errorf("reports months = %v, want [%s]", listing.Months, report.Month)
	}

	pathMonth := strings.Replace(report.Month, "/", "-", 1)
	rec = doJSON(t, srv, http.MethodGet, "/api/reports/"+pathMonth, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET report by month status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/13-2025", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid month status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/reports/01-1999", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing month status = %d, want 404", rec.Code)
	}
}

func TestAnalyticsAndSmallCash(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/expenses", `{"category":"דלק","amount":"300"}`)
	doJSON(t, srv, http.MethodPost, "/api/rollover", "")

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analytics status = %d", rec.Code)
	}
	report := decodeBody[ledger.AnalyticsReport](t, rec)
	if len(report.Savings) != 1 {
		t.Errorf("savings series length = %d, want 1", len(report.Savings))
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/smallcash", "")
	resp := decodeBody[smallCashResponse](t, rec)
	want := core.Money{Agorot: report.TotalSavings.Agorot * 30 / 100}
	if resp.SmallCash != want {
		t.Errorf("small cash = %v, want %v", resp.SmallCash, want)
	}
}

func TestCustomLedgerEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/custom/incomes",
		`{"description":"מתנה","amount":"500"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST income status = %d, body %s", rec.Code, rec.Body.String())
	}
	income := decodeBody[core.CustomEntry](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/api/custom/expenses",
		`{"description":"תיקון רכב","amount":"200"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST expense status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/custom", "")
	custom := decodeBody[customResponse](t, rec)
	if custom.Balance != core.FromShekels(300) {
		t.Errorf("custom balance = %v, want ₪300", custom.Balance)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/custom/entries/"+income.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE entry status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/custom/entries/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE missing entry status = %d, want 404", rec.Code)
	}
}

func TestVoiceFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/voice/listen", "")
	status := decodeBody[voice.Status](t, rec)
	if status.State != voice.StateListening {
		t.Fatalf("state after listen = %q, want listening", status.State)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/voice/transcript",
		`{"transcript":"50 שקל דלק"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("transcript status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[voiceStatusResponse](t, rec)
	if resp.State != voice.StateConfirming {
		t.Fatalf("state after transcript = %q, want confirming", resp.State)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/voice/confirm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/expenses", "")
	expenses := decodeBody[[]core.Expense](t, rec)
	if len(expenses) != 1 || expenses[0].Category != core.CategoryFuel {
		t.Fatalf("expenses after voice confirm = %+v", expenses)
	}
}

func TestVoiceTranscriptRejected(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/voice/listen", "")
	rec := doJSON(t, srv, http.MethodPost, "/api/voice/transcript",
		`{"transcript":"סתם דיבורים"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("rejected transcript status = %d, want 422", rec.Code)
	}
	resp := decodeBody[voiceStatusResponse](t, rec)
	if resp.Error == "" {
		t.Error("rejected transcript carries no error message")
	}
	if resp.State != voice.StateIdle {
		t.Errorf("state after rejection = %q, want idle", resp.State)
	}
}

func TestVoiceDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewStore(storage.NewMemoryDriver())
	service, err := ledger.NewService(context.Background(), store, nil, logger)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	srv := NewServer(":0", service, nil, logger, Options{})
	defer srv.Shutdown(context.Background())

	rec := doJSON(t, srv, http.MethodGet, "/api/voice/status", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("voice status with nil intake = %d, want 503", rec.Code)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	csv := "category,amount,date,note\n" +
		"דלק,52.30,2025-03-15,מילוי\n" +
		"לא-קטגוריה,10,2025-03-15,\n"
	rec := doJSON(t, srv, http.MethodPost, "/api/import", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}](t, rec)
	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("import result = %+v, want 1 imported 1 skipped", result)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("export Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "דלק") {
		t.Error("export body is missing the imported expense")
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t)

	limited := false
	for i := 0; i < 70; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/voice/cancel", "")
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("rate limiter never kicked in after 70 mutating requests")
	}

	// Reads stay unthrottled.
	rec := doJSON(t, srv, http.MethodGet, "/api/balances", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET during throttle = %d, want 200", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/balances", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/balances"},
		{http.MethodGet, "/api/rollover"},
		{http.MethodPut, "/api/expenses"},
	}
	for _, tt := range tests {
		rec := doJSON(t, srv, tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
}
