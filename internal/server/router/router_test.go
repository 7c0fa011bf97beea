package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/briquette/internal/domain/models"
	"github.com/mamadbah2/briquette/internal/metrics"
	"github.com/mamadbah2/briquette/internal/repository/mongodb"
	"github.com/mamadbah2/briquette/internal/repository/mongodb/mongodbtest"
	"github.com/mamadbah2/briquette/internal/server/handlers"
	kpisvc "github.com/mamadbah2/briquette/internal/service/kpi"
	recordsvc "github.com/mamadbah2/briquette/internal/service/records"
)

type store interface {
	mongodb.Repository
	handlers.StatusReporter
}

func newEngine(repo store) *gin.Engine {
	m := metrics.New()
	return New(Handlers{
		Records:     handlers.NewRecordsHandler(recordsvc.NewService(repo, m, nil), nil),
		KPI:         handlers.NewKPIHandler(kpisvc.NewService(repo, nil), nil),
		Diagnostics: handlers.NewDiagnosticsHandler(repo, nil),
	}, m, nil)
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRoot(t *testing.T) {
	w := do(t, newEngine(mongodbtest.NewMemory()), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Briquette Manufacturing Backend Running"}`, w.Body.String())
}

func TestCreateAndListRoundTrip(t *testing.T) {
	tests := []struct {
		path string
		body string
		want map[string]any
	}{
		{
			path: "/api/rawmaterials",
			body: `{"name":"Sawdust","unit":"kg","cost_per_unit":2.5}`,
			want: map[string]any{"name": "Sawdust", "unit": "kg", "cost_per_unit": 2.5},
		},
		{
			path: "/api/inwards",
			body: `{"date":"2024-03-01","material_name":"Sawdust","quantity":100,"unit_cost":2.75,"supplier":"Mill A"}`,
			want: map[string]any{"date": "2024-03-01", "material_name": "Sawdust", "quantity": 100.0, "unit_cost": 2.75, "supplier": "Mill A", "notes": nil},
		},
		{
			path: "/api/production",
			body: `{"date":"2024-03-02","quantity_produced":480}`,
			want: map[string]any{"date": "2024-03-02", "product": "briquette", "quantity_produced": 480.0, "notes": nil},
		},
		{
			path: "/api/sales",
			body: `{"date":"2024-03-03","customer":"Hotel B","quantity_sold":200,"unit_price":1.2}`,
			want: map[string]any{"date": "2024-03-03", "customer": "Hotel B", "quantity_sold": 200.0, "unit_price": 1.2, "notes": nil},
		},
		{
			path: "/api/expenses",
			body: `{"date":"2024-03-04","category":"Electricity","amount":35,"notes":"March bill"}`,
			want: map[string]any{"date": "2024-03-04", "category": "Electricity", "amount": 35.0, "notes": "March bill"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			engine := newEngine(mongodbtest.NewMemory())

			w := do(t, engine, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			created := decode[map[string]string](t, w)
			require.NotEmpty(t, created["id"])

			w = do(t, engine, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, w.Code)
			docs := decode[[]map[string]any](t, w)
			require.Len(t, docs, 1)

			want := map[string]any{"id": created["id"]}
			for k, v := range tt.want {
				want[k] = v
			}
			assert.Equal(t, want, docs[0])
		})
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := mongodbtest.NewMemory()
	engine := newEngine(repo)

	w := do(t, engine, http.MethodPost, "/api/sales", `{"date":"2024-03-03","quantity_sold":-1}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode[struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}](t, w)
	assert.Equal(t, "validation failed", body.Error)
	fields := make([]string, 0, len(body.Fields))
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"quantity_sold", "unit_price"}, fields)
	assert.Zero(t, repo.Count(models.CollectionSale))
}

func TestListLimit(t *testing.T) {
	repo := mongodbtest.NewMemory()
	engine := newEngine(repo)
	for i := 0; i < 205; i++ {
		w := do(t, engine, http.MethodPost, "/api/expenses", fmt.Sprintf(`{"date":"2024-03-04","category":"Labor","amount":%d}`, i))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, engine, http.MethodGet, "/api/expenses", "")
	assert.Len(t, decode[[]map[string]any](t, w), mongodb.DefaultListLimit)

	w = do(t, engine, http.MethodGet, "/api/expenses?limit=7", "")
	assert.Len(t, decode[[]map[string]any](t, w), 7)

	for _, bad := range []string{"0", "-3", "ten"} {
		w = do(t, engine, http.MethodGet, "/api/expenses?limit="+bad, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, bad)
	}
}

func TestProfitKPI(t *testing.T) {
	engine := newEngine(mongodbtest.NewMemory())

	w := do(t, engine, http.MethodGet, "/api/kpi/profit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_sales":0,"total_expenses":0,"profit":0}`, w.Body.String())

	for _, body := range []string{
		`{"date":"2024-03-03","quantity_sold":10,"unit_price":5}`,
		`{"date":"2024-03-03","quantity_sold":2,"unit_price":3}`,
	} {
		require.Equal(t, http.StatusOK, do(t, engine, http.MethodPost, "/api/sales", body).Code)
	}
	for _, body := range []string{
		`{"date":"2024-03-03","category":"Labor","amount":20}`,
		`{"date":"2024-03-03","category":"Transport","amount":5}`,
	} {
		require.Equal(t, http.StatusOK, do(t, engine, http.MethodPost, "/api/expenses", body).Code)
	}

	w = do(t, engine, http.MethodGet, "/api/kpi/profit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_sales":56,"total_expenses":25,"profit":31}`, w.Body.String())
}

func TestKPISnapshots(t *testing.T) {
	engine := newEngine(mongodbtest.NewMemory())

	w := do(t, engine, http.MethodPost, "/api/kpi/snapshots", "")
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[map[string]string](t, w)["id"]

	w = do(t, engine, http.MethodGet, "/api/kpi/snapshots", "")
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[[]map[string]any](t, w)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0]["id"])
	assert.Equal(t, 0.0, docs[0]["profit"])
}

func TestStoreUnavailable(t *testing.T) {
	engine := newEngine(mongodb.NewUnavailable(nil))

	w := do(t, engine, http.MethodPost, "/api/rawmaterials", `{"name":"Sawdust","unit":"kg","cost_per_unit":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// Validation still runs first.
	w = do(t, engine, http.MethodPost, "/api/rawmaterials", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for _, path := range []string{"/api/rawmaterials", "/api/inwards", "/api/production", "/api/sales", "/api/expenses", "/api/kpi/profit"} {
		w = do(t, engine, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}

	w = do(t, engine, http.MethodGet, "/test", "")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[handlers.DiagnosticsResponse](t, w)
	assert.Equal(t, "✅ Running", report.Backend)
	assert.Equal(t, "⚠️  Available but not initialized", report.Database)
	assert.Equal(t, "Not Connected", report.ConnectionStatus)
	assert.Nil(t, report.DatabaseURL)
	assert.Empty(t, report.Collections)
}

func TestDiagnosticsConnected(t *testing.T) {
	repo := mongodbtest.NewMemory()
	engine := newEngine(repo)
	require.Equal(t, http.StatusOK, do(t, engine, http.MethodPost, "/api/expenses", `{"date":"2024-03-04","category":"Labor","amount":1}`).Code)

	w := do(t, engine, http.MethodGet, "/test", "")
	report := decode[handlers.DiagnosticsResponse](t, w)
	assert.Equal(t, "✅ Connected & Working", report.Database)
	assert.Equal(t, "Connected", report.ConnectionStatus)
	require.NotNil(t, report.DatabaseName)
	assert.Equal(t, "memory", *report.DatabaseName)
	assert.Equal(t, []string{models.CollectionExpense}, report.Collections)
}

func TestCORSEchoesOriginWithCredentials(t *testing.T) {
	engine := newEngine(mongodbtest.NewMemory())

	req := httptest.NewRequest(http.MethodOptions, "/api/sales", nil)
	req.Header.Set("Origin", "https://plant.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://plant.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestIDAndOperationalRoutes(t *testing.T) {
	engine := newEngine(mongodbtest.NewMemory())

	w := do(t, engine, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))

	w = do(t, engine, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "briquette_http_requests_total")
}

func TestCORSPreflightGrantsRequestedHeaders(t *testing.T) {
	engine := newEngine(mongodbtest.NewMemory())

	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set("Origin", "https://plant.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Tenant, x-trace-token")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, allowed, "x-tenant")
	assert.Contains(t, allowed, "x-trace-token")
	assert.Contains(t, allowed, "content-type")
	assert.Equal(t, "https://plant.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNonFiniteAmountsNeverReachTheStore(t *testing.T) {
	repo := mongodbtest.NewMemory()
	engine := newEngine(repo)

	require.Equal(t, http.StatusOK, do(t, engine, http.MethodPost, "/api/expenses", `{"date":"2024-03-04","category":"Labor","amount":5}`).Code)

	for _, value := range []string{`"Infinity"`, `"-Inf"`, `"NaN"`} {
		w := do(t, engine, http.MethodPost, "/api/expenses", `{"date":"2024-03-04","category":"Labor","amount":`+value+`}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, value)
	}
	assert.Equal(t, 1, repo.Count(models.CollectionExpense))

	w := do(t, engine, http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = do(t, engine, http.MethodGet, "/api/kpi/profit", "")
	assert.JSONEq(t, `{"total_sales":0,"total_expenses":5,"profit":-5}`, w.Body.String())
}

func TestEmptyStringsAndProductPresence(t *testing.T) {
	repo := mongodbtest.NewMemory()
	engine := newEngine(repo)

	w := do(t, engine, http.MethodPost, "/api/rawmaterials", `{"name":"","unit":"kg","cost_per_unit":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, engine, http.MethodPost, "/api/production", `{"date":"2024-03-02","product":null,"quantity_produced":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, repo.Count(models.CollectionProduction))

	w = do(t, engine, http.MethodPost, "/api/production", `{"date":"2024-03-02","product":"","quantity_produced":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, engine, http.MethodGet, "/api/production", "")
	docs := decode[[]map[string]any](t, w)
	require.Len(t, docs, 1)
	assert.Equal(t, "", docs[0]["product"])
}
