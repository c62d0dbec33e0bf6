package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/logger"
	"fintrack/internal/testutil"
	"fintrack/internal/validator"
)

const testAPIKey = "operator-key"

type testApp struct {
	router    *gin.Engine
	publisher *events.Recorder
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testConfig() *config.Config {
	cfg := *config.Get()
	cfg.AuthRatePerMinute = 1000
	cfg.InternalAPIKey = testAPIKey
	return &cfg
}

func setupApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	rec := &events.Recorder{}
	return &testApp{router: New(cfg, NewServices(db, cfg, rec)), publisher: rec}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), "body: %s", rec.Body.String())
	return result
}

// object digs a nested JSON object out of a decoded response.
func object(t *testing.T, m map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	v, ok := m[key].(map[string]interface{})
	require.True(t, ok, "expected object at %q in %v", key, m)
	return v
}

func (app *testApp) register(t *testing.T, username string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/auth/register", fmt.Sprintf(`{"username":%q,"pin":"2468"}`, username), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return parseJSON(t, rec)["token"].(string)
}

func (app *testApp) createAccount(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/accounts", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return object(t, parseJSON(t, rec), "account")["id"].(string)
}

func (app *testApp) createTransaction(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/transactions", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return object(t, parseJSON(t, rec), "transaction")["id"].(string)
}

func (app *testApp) balance(t *testing.T, token, accountID string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/accounts/"+accountID, "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return object(t, parseJSON(t, rec), "account")["balance"].(string)
}

func TestHealthAndPreflight(t *testing.T) {
	app := setupApp(t, testConfig())

	rec := app.request("GET", "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", parseJSON(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = app.request("OPTIONS", "/api/v1/accounts", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t, testConfig())

	token := app.register(t, "ana")

	rec := app.request("POST", "/api/v1/auth/register", `{"username":"ANA","pin":"1357"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.request("POST", "/api/v1/auth/login", `{"username":"ana","pin":"0000"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request("POST", "/api/v1/auth/login", `{"username":"ana","pin":"2468"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, parseJSON(t, rec)["token"])

	rec = app.request("GET", "/api/v1/profile", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", object(t, parseJSON(t, rec), "user")["username"])

	rec = app.request("GET", "/api/v1/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request("GET", "/api/v1/profile", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRatePerMinute = 2
	app := setupApp(t, cfg)

	body := `{"username":"nobody","pin":"1111"}`
	for i := 0; i < 2; i++ {
		rec := app.request("POST", "/api/v1/auth/login", body, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestLedgerFlow(t *testing.T) {
	app := setupApp(t, testConfig())
	token := app.register(t, "ledger")

	wallet := app.createAccount(t, token, `{"name":"Wallet","type":"day-to-day","opening_balance":"1000","is_primary":true}`)
	savings := app.createAccount(t, token, `{"name":"Savings","type":"day-to-day"}`)

	rec := app.request("POST", "/api/v1/budgets", `{"category":"Food","amount":"200","month":"2024-03"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	budgetID := object(t, parseJSON(t, rec), "budget")["id"].(string)

	app.createTransaction(t, token, `{"type":"income","amount":"500","category":"Salary","account_id":"`+wallet+`","date":"2024-03-01"}`)
	expenseID := app.createTransaction(t, token, `{"type":"expense","amount":"170.5","category":"Food","account_id":"`+wallet+`","date":"2024-03-05"}`)
	app.createTransaction(t, token, `{"type":"transfer","amount":"250","account_id":"`+wallet+`","to_account_id":"`+savings+`","date":"2024-03-06"}`)

	assert.Equal(t, "1079.5", app.balance(t, token, wallet))
	assert.Equal(t, "250", app.balance(t, token, savings))

	rec = app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	budget := object(t, parseJSON(t, rec), "budget")
	assert.Equal(t, "170.5", budget["spent"])
	assert.Equal(t, "warning", object(t, budget, "utilization")["status"])

	rec = app.request("GET", "/api/v1/dashboard?month=2024-03", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := object(t, parseJSON(t, rec), "summary")
	assert.Equal(t, "1329.5", summary["total_balance"])
	assert.Equal(t, "500", summary["monthly_income"])
	assert.Equal(t, "170.5", summary["monthly_expenses"])
	assert.Len(t, summary["budget_alerts"], 1)

	rec = app.request("GET", "/api/v1/transactions?month=2024-03&type=expense", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), parseJSON(t, rec)["total_items"])

	rec = app.request("DELETE", "/api/v1/transactions/"+expenseID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1250", app.balance(t, token, wallet))

	rec = app.request("POST", "/api/v1/ledger/reconcile", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	report := object(t, parseJSON(t, rec), "report")
	assert.Empty(t, report["account_drifts"])
	assert.Empty(t, report["budget_drifts"])

	assert.Equal(t, []string{
		events.TransactionCreated,
		events.TransactionCreated,
		events.TransactionCreated,
		events.TransactionDeleted,
	}, app.publisher.Types())
}

func TestLedgerValidationLeavesBalancesUntouched(t *testing.T) {
	app := setupApp(t, testConfig())
	token := app.register(t, "strict")
	wallet := app.createAccount(t, token, `{"name":"Wallet","type":"day-to-day","opening_balance":"100"}`)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"zero amount", `{"type":"expense","amount":"0","category":"Food","account_id":"` + wallet + `"}`, http.StatusBadRequest},
		{"transfer without destination", `{"type":"transfer","amount":"10","account_id":"` + wallet + `"}`, http.StatusBadRequest},
		{"transfer to itself", `{"type":"transfer","amount":"10","account_id":"` + wallet + `","to_account_id":"` + wallet + `"}`, http.StatusBadRequest},
		{"expense without category", `{"type":"expense","amount":"10","account_id":"` + wallet + `"}`, http.StatusBadRequest},
		{"unknown account", `{"type":"income","amount":"10","category":"Salary","account_id":"0190a1b2-0000-7000-8000-000000000999"}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.request("POST", "/api/v1/transactions", tc.body, token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, "100", app.balance(t, token, wallet))
		})
	}
}

func TestUserIsolation(t *testing.T) {
	app := setupApp(t, testConfig())
	owner := app.register(t, "owner")
	intruder := app.register(t, "intruder")

	account := app.createAccount(t, owner, `{"name":"Private","type":"day-to-day","opening_balance":"50"}`)

	rec := app.request("GET", "/api/v1/accounts/"+account, "", intruder)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("POST", "/api/v1/transactions",
		`{"type":"expense","amount":"50","category":"Food","account_id":"`+account+`"}`, intruder)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "50", app.balance(t, owner, account))
}

func TestGoalFlow(t *testing.T) {
	app := setupApp(t, testConfig())
	token := app.register(t, "saver")

	rec := app.request("POST", "/api/v1/goals", `{"name":"Bike","target_amount":"300","priority":"high"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goalID := object(t, parseJSON(t, rec), "goal")["id"].(string)

	rec = app.request("POST", "/api/v1/goals/"+goalID+"/contribute", `{"amount":"120"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", object(t, parseJSON(t, rec), "goal")["status"])

	rec = app.request("POST", "/api/v1/goals/"+goalID+"/contribute", `{"amount":"500"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	goal := object(t, parseJSON(t, rec), "goal")
	assert.Equal(t, "completed", goal["status"])
	assert.Equal(t, "300", goal["current_amount"])

	rec = app.request("POST", "/api/v1/goals/"+goalID+"/status", `{"status":"paused"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.request("GET", "/api/v1/goals?status=completed", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["goals"], 1)

	assert.Equal(t, []string{events.GoalCompleted}, app.publisher.Types())
}

func TestCategoryRoutes(t *testing.T) {
	app := setupApp(t, testConfig())
	token := app.register(t, "tagger")

	rec := app.request("POST", "/api/v1/categories", `{"name":"Pets","type":"expense"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := object(t, parseJSON(t, rec), "category")["id"].(string)

	rec = app.request("POST", "/api/v1/categories", `{"name":"pets","type":"expense"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.request("GET", "/api/v1/categories?type=expense", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := parseJSON(t, rec)["categories"].([]interface{})
	last := categories[len(categories)-1].(map[string]interface{})
	assert.Equal(t, "Pets", last["name"])

	rec = app.request("DELETE", "/api/v1/categories/"+id, "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalReconcile(t *testing.T) {
	app := setupApp(t, testConfig())
	token := app.register(t, "ops")
	app.createAccount(t, token, `{"name":"Wallet","type":"day-to-day","opening_balance":"10"}`)

	rec := app.request("POST", "/api/v1/internal/reconcile", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("POST", "/api/v1/internal/reconcile?dry_run=true", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := parseJSON(t, w)
	assert.Equal(t, float64(1), result["users"])
	assert.Equal(t, float64(0), result["drifted"])

	cfg := testConfig()
	cfg.InternalAPIKey = ""
	disabled := setupApp(t, cfg)
	req = httptest.NewRequest("POST", "/api/v1/internal/reconcile", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w = httptest.NewRecorder()
	disabled.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
