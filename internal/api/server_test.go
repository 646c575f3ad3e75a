package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"expenseapi/internal/auth"
	"expenseapi/internal/log"
	"expenseapi/internal/services"
	"expenseapi/internal/storage"
)

type testEnv struct {
	server *httptest.Server
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "api-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	expenseStore := storage.NewExpenseStore(db)
	categoryStore := storage.NewCategoryStore(db)
	budgetStore := storage.NewBudgetStore(db)
	statusStore := storage.NewStatusStore(db)
	userStore := storage.NewUserStore(db)
	settingsStore := storage.NewSettingsStore(db)

	tokens := auth.NewTokenManager("test-secret-at-least-16", time.Hour)
	blacklist := auth.NewBlacklist()

	budgetService := services.NewBudgetService(expenseStore, budgetStore, categoryStore)
	categoryService := services.NewCategoryService(categoryStore, budgetStore, budgetService)
	statusService := services.NewStatusService(statusStore)
	expenseService := services.NewExpenseService(expenseStore, categoryStore, statusStore, budgetService, nil)
	userService := services.NewUserService(userStore, settingsStore, blacklist, time.Hour)
	authService := services.NewAuthService(userStore, tokens, blacklist)

	srv := NewServer(Deps{
		Logger:      log.New(log.DefaultConfig()),
		AuthService: authService,
		Users:       userService,
		Categories:  categoryService,
		Statuses:    statusService,
		Expenses:    expenseService,
		Budgets:     budgetService,
		BudgetRepo:  budgetStore,
		Tokens:      tokens,
		Blacklist:   blacklist,
	})

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	env := &testEnv{server: ts}

	// a signed-in user for the protected surface
	env.do(t, http.StatusCreated, "POST", "/v1/users", map[string]any{
		"firstname": "Test",
		"lastname":  "User",
		"email":     "test@example.com",
		"password":  "password123",
	}, nil)
	var login struct {
		Token string `json:"token"`
	}
	env.do(t, http.StatusOK, "POST", "/v1/auth/login", map[string]any{
		"email":    "test@example.com",
		"password": "password123",
	}, &login)
	env.token = login.Token
	return env
}

// do issues a request, asserts the status and decodes the body into out when
// it is non-nil.
func (e *testEnv) do(t *testing.T, wantStatus int, method, path string, body any, out any) {
	t.Helper()
	resp := e.raw(t, method, path, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s = %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
}

func (e *testEnv) raw(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *testEnv) createCategory(t *testing.T, name string) int64 {
	t.Helper()
	var cat struct {
		ID int64 `json:"id"`
	}
	e.do(t, http.StatusCreated, "POST", "/v1/expense-categories", map[string]any{"name": name}, &cat)
	return cat.ID
}

func (e *testEnv) createStatus(t *testing.T, name string, isDefault bool) int64 {
	t.Helper()
	var st struct {
		ID int64 `json:"id"`
	}
	e.do(t, http.StatusCreated, "POST", "/v1/expense-statuses", map[string]any{
		"name": name, "isDefault": isDefault,
	}, &st)
	return st.ID
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""
	env.do(t, http.StatusOK, "GET", "/actuator/health", nil, nil)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""
	env.do(t, http.StatusUnauthorized, "GET", "/v1/expenses", nil, nil)
	env.token = "bogus"
	env.do(t, http.StatusUnauthorized, "GET", "/v1/expenses", nil, nil)
}

func TestBudgetAdmissionFlow(t *testing.T) {
	env := newTestEnv(t)
	catID := env.createCategory(t, "Food")
	env.createStatus(t, "Pending", true)

	budgetPath := fmt.Sprintf("/v1/expense-categories/%d/budgets", catID)
	env.do(t, http.StatusCreated, "POST", budgetPath, map[string]any{
		"year": 2025, "month": 6, "budget": "100.00",
	}, nil)
	env.do(t, http.StatusOK, "PATCH", budgetPath+"/2025/6/allow-overspend", map[string]any{
		"allowOverspend": false,
	}, nil)

	// 70.00 fits inside the envelope
	env.do(t, http.StatusCreated, "POST", "/v1/expenses", map[string]any{
		"expenseDate":       "2025-06-10",
		"designation":       "groceries",
		"amount":            "70.00",
		"expenseCategoryId": catID,
	}, nil)

	// 40.00 more would overshoot: denied with the numeric envelope
	var denial struct {
		CategoryID     int64  `json:"categoryId"`
		Year           int    `json:"year"`
		Month          int    `json:"month"`
		Budget         string `json:"budget"`
		Spent          string `json:"spent"`
		AttemptedTotal string `json:"attemptedTotal"`
		AllowOverspend bool   `json:"allowOverspend"`
	}
	env.do(t, http.StatusBadRequest, "POST", "/v1/expenses", map[string]any{
		"expenseDate":       "2025-06-15",
		"designation":       "splurge",
		"amount":            "40.00",
		"expenseCategoryId": catID,
	}, &denial)
	if denial.CategoryID != catID || denial.Year != 2025 || denial.Month != 6 {
		t.Errorf("denial coordinates wrong: %+v", denial)
	}
	if denial.Budget != "100" || denial.Spent != "70" || denial.AttemptedTotal != "110" {
		t.Errorf("denial numbers wrong: %+v", denial)
	}
	if denial.AllowOverspend {
		t.Error("denial must report allowOverspend=false")
	}

	// flipping the flag admits the same request
	env.do(t, http.StatusOK, "PATCH", budgetPath+"/2025/6/allow-overspend", map[string]any{
		"allowOverspend": true,
	}, nil)
	env.do(t, http.StatusCreated, "POST", "/v1/expenses", map[string]any{
		"expenseDate":       "2025-06-15",
		"designation":       "splurge",
		"amount":            "40.00",
		"expenseCategoryId": catID,
	}, nil)

	var status struct {
		Budget     *string `json:"budget"`
		Spent      string  `json:"spent"`
		OverBudget bool    `json:"overBudget"`
	}
	env.do(t, http.StatusOK, "GET", budgetPath+"/2025/6/status", nil, &status)
	if status.Budget == nil || status.Spent != "110" {
		t.Errorf("status after overspend: %+v", status)
	}
	if status.OverBudget {
		t.Error("overspend allowed must never report overBudget")
	}
}

func TestBudgetStatusWithoutBudget(t *testing.T) {
	env := newTestEnv(t)
	catID := env.createCategory(t, "Misc")
	env.createStatus(t, "Pending", true)

	env.do(t, http.StatusCreated, "POST", "/v1/expenses", map[string]any{
		"expenseDate":       "2025-06-01",
		"designation":       "anything",
		"amount":            "12345.00",
		"expenseCategoryId": catID,
	}, nil)

	var status struct {
		Budget     *string `json:"budget"`
		Spent      string  `json:"spent"`
		OverBudget bool    `json:"overBudget"`
	}
	path := fmt.Sprintf("/v1/expense-categories/%d/budgets/2025/6/status", catID)
	env.do(t, http.StatusOK, "GET", path, nil, &status)
	if status.Budget != nil {
		t.Errorf("budget should be null, got %v", *status.Budget)
	}
	if status.OverBudget {
		t.Error("no budget never reports overBudget")
	}
	if status.Spent != "12345" {
		t.Errorf("spent = %q", status.Spent)
	}
}

func TestExpenseSearchPagination(t *testing.T) {
	env := newTestEnv(t)
	catID := env.createCategory(t, "Food")
	env.createStatus(t, "Pending", true)

	for day := 1; day <= 5; day++ {
		env.do(t, http.StatusCreated, "POST", "/v1/expenses", map[string]any{
			"expenseDate":       fmt.Sprintf("2025-06-%02d", day),
			"designation":       fmt.Sprintf("purchase %d", day),
			"amount":            "10.00",
			"expenseCategoryId": catID,
		}, nil)
	}

	var page struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Page          int   `json:"page"`
			Size          int   `json:"size"`
			TotalElements int64 `json:"totalElements"`
			TotalPages    int   `json:"totalPages"`
		} `json:"pagination"`
	}
	env.do(t, http.StatusOK, "GET",
		"/v1/expenses?page=2&size=2&startDate=2025-06-01&endDate=2025-06-30", nil, &page)
	if page.Pagination.TotalElements != 5 || page.Pagination.TotalPages != 3 {
		t.Errorf("pagination envelope wrong: %+v", page.Pagination)
	}
	if len(page.Data) != 2 {
		t.Errorf("page 2 size = %d, want 2", len(page.Data))
	}

	env.do(t, http.StatusBadRequest, "GET", "/v1/expenses?startDate=junk", nil, nil)
}

func TestDeactivationRevokesTokens(t *testing.T) {
	env := newTestEnv(t)

	var victim struct {
		ID int64 `json:"id"`
	}
	env.do(t, http.StatusCreated, "POST", "/v1/users", map[string]any{
		"firstname": "Second",
		"lastname":  "User",
		"email":     "second@example.com",
		"password":  "password123",
	}, &victim)

	adminToken := env.token
	var login struct {
		Token string `json:"token"`
	}
	env.do(t, http.StatusOK, "POST", "/v1/auth/login", map[string]any{
		"email":    "second@example.com",
		"password": "password123",
	}, &login)

	// the victim's token works before deactivation
	env.token = login.Token
	env.do(t, http.StatusOK, "GET", "/v1/expenses", nil, nil)

	env.token = adminToken
	env.do(t, http.StatusOK, "PATCH", fmt.Sprintf("/v1/users/%d/status", victim.ID), nil, nil)

	env.token = login.Token
	env.do(t, http.StatusUnauthorized, "GET", "/v1/expenses", nil, nil)

	// and an inactive account cannot log back in
	env.token = ""
	env.do(t, http.StatusForbidden, "POST", "/v1/auth/login", map[string]any{
		"email":    "second@example.com",
		"password": "password123",
	}, nil)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.StatusNoContent, "POST", "/v1/auth/logout", nil, nil)
	env.do(t, http.StatusUnauthorized, "GET", "/v1/expenses", nil, nil)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.token = ""

	env.do(t, http.StatusUnauthorized, "POST", "/v1/auth/login", map[string]any{
		"email":    "test@example.com",
		"password": "wrong-password",
	}, nil)
	env.do(t, http.StatusUnauthorized, "POST", "/v1/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": "password123",
	}, nil)
	env.do(t, http.StatusBadRequest, "POST", "/v1/auth/login", map[string]any{
		"email": "test@example.com",
	}, nil)
}

func TestDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.StatusConflict, "POST", "/v1/users", map[string]any{
		"firstname": "Dup",
		"lastname":  "User",
		"email":     "test@example.com",
		"password":  "password123",
	}, nil)
}
