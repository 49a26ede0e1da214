package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/ledger/inmemory"
	"github.com/dvloznov/ledger/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T) (*httptest.Server, *inmemory.Store) {
	t.Helper()
	store := inmemory.NewStore()
	for _, tx := range []domain.Transaction{
		{ID: 1, Timestamp: civil.Date{Year: 2025, Month: 1, Day: 5}, Payee: "Employer", Amount: decimal.RequireFromString("2000"), Currency: "USD", Category: "Salary"},
		{ID: 2, Timestamp: civil.Date{Year: 2025, Month: 1, Day: 7}, Payee: "Supermarket", Amount: decimal.RequireFromString("-80.25"), Currency: "USD", Category: "Groceries"},
		{ID: 3, Timestamp: civil.Date{Year: 2025, Month: 2, Day: 1}, Payee: "Corner Cafe", Amount: decimal.RequireFromString("-4.50"), Currency: "USD", Category: "Dining"},
	} {
		store.Add(tx)
	}

	srv := httptest.NewServer(NewRouter(store, pipeline.NewImporter(store, nil), zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestListTransactions(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []int
	}{
		{"all", "", http.StatusOK, []int{1, 2, 3}},
		{"month", "?month=2025-01", http.StatusOK, []int{1, 2}},
		{"category", "?category=din", http.StatusOK, []int{3}},
		{"search", "?search=super", http.StatusOK, []int{2}},
		{"min amount", "?min_amount=-5", http.StatusOK, []int{1, 3}},
		{"combined", "?month=2025-01&min_amount=0", http.StatusOK, []int{1}},
		{"no match", "?month=2030-01", http.StatusOK, []int{}},
		{"bad month", "?month=2025-13", http.StatusBadRequest, nil},
		{"bad amount", "?min_amount=lots", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodGet, srv.URL+"/api/transactions"+tt.query, "")
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got struct {
				Transactions []domain.Transaction `json:"transactions"`
				Count        int                  `json:"count"`
			}
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode: %v: %s", err, body)
			}
			if got.Count != len(tt.wantIDs) || len(got.Transactions) != len(tt.wantIDs) {
				t.Fatalf("got %d transactions, want %v", got.Count, tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if got.Transactions[i].ID != id {
					t.Errorf("transactions[%d].ID = %d, want %d", i, got.Transactions[i].ID, id)
				}
			}
		})
	}
}

func TestTransactionByID(t *testing.T) {
	srv, store := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/transactions/2", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"Amount":-80.25`) {
		t.Errorf("GET = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/transactions/99", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET missing = %d, want 404", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/transactions/abc", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("GET invalid id = %d, want 400", resp.StatusCode)
	}

	resp, body = do(t, http.MethodPatch, srv.URL+"/api/transactions/2", `{"category":"Food"}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"Category":"Food"`) {
		t.Errorf("PATCH = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodPatch, srv.URL+"/api/transactions/2", `{"payee":"x"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PATCH unknown field = %d, want 400", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/transactions/2", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d, want 204", resp.StatusCode)
	}
	if _, ok := store.Get(2); ok {
		t.Error("transaction 2 still stored")
	}

	resp, _ = do(t, http.MethodDelete, srv.URL+"/api/transactions/2", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodPut, srv.URL+"/api/transactions/1", "{}")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("PUT = %d, want 405", resp.StatusCode)
	}
}

func TestRenameCategory(t *testing.T) {
	srv, store := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/categories/rename", `{"from":"SALARY","to":"Income"}`)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"updated":1`) {
		t.Errorf("rename = %d %s", resp.StatusCode, body)
	}
	if tx, _ := store.Get(1); tx.Category != "Income" {
		t.Errorf("category = %q, want Income", tx.Category)
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/categories/rename", `{"to":"Income"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("rename without from = %d, want 400", resp.StatusCode)
	}
}

func TestImportsAndJobs(t *testing.T) {
	srv, store := newTestServer(t)

	path := filepath.Join(t.TempDir(), "jan.csv")
	csv := "Id,Date,Payee,Amount,Currency,Category\n10,2025-01-20,Bakery,-3.10,USD,Food\n1,2025-01-05,Employer,2000,USD,Salary\nnope\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string][]string{"paths": {path}})
	resp, out := do(t, http.MethodPost, srv.URL+"/api/imports", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import = %d %s", resp.StatusCode, out)
	}

	var res pipeline.Result
	if err := json.Unmarshal(out, &res); err != nil {
		t.Fatal(err)
	}
	if res != (pipeline.Result{Imported: 1, Duplicates: 1, Malformed: 1}) {
		t.Errorf("result = %+v", res)
	}
	if store.Len() != 4 {
		t.Errorf("Len() = %d, want 4", store.Len())
	}

	resp, out = do(t, http.MethodGet, srv.URL+"/api/jobs?status=completed", "")
	var list struct {
		Jobs []struct {
			JobID    string `json:"job_id"`
			Path     string `json:"path"`
			Imported int64  `json:"imported"`
		} `json:"jobs"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(out, &list); err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("jobs = %d %s", resp.StatusCode, out)
	}
	if list.Count != 1 || list.Jobs[0].Path != path || list.Jobs[0].Imported != 1 {
		t.Fatalf("jobs = %+v", list)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/jobs/"+list.Jobs[0].JobID, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET job = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, srv.URL+"/api/jobs/unknown", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET unknown job = %d, want 404", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/imports", `{"paths":[" "]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty import = %d, want 400", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/stats/monthly?month=2025-01", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("monthly = %d %s", resp.StatusCode, body)
	}
	for _, want := range []string{`"income":2000`, `"expense":-80.25`, `"top_categories":[{"category":"Groceries","total":80.25}]`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("monthly body missing %s: %s", want, body)
		}
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/stats/yearly?year=2025", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"month":"2025-02"`) {
		t.Errorf("yearly = %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/stats/yearly?year=1990", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"months":[]`) {
		t.Errorf("empty yearly = %d %s", resp.StatusCode, body)
	}

	for _, url := range []string{"/api/stats/monthly", "/api/stats/monthly?month=Jan", "/api/stats/yearly?year=x"} {
		if resp, _ := do(t, http.MethodGet, srv.URL+url, ""); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", url, resp.StatusCode)
		}
	}
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/export?format=csv", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), ".csv") {
		t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	if !strings.HasPrefix(string(body), "Id,Timestamp,Payee,Amount,Currency,Category\n1,2025-01-05,Employer,2000,USD,Salary\n") {
		t.Errorf("csv body = %q", body)
	}

	resp, body = do(t, http.MethodGet, srv.URL+"/api/export", "")
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
		t.Errorf("default export = %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/export?format=pdf", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("pdf export = %d, want 400", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"transactions":3`) {
		t.Errorf("health = %d %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}
