// Package api exposes the REST surface over chi: authentication, users and
// settings, the category tree with its budgets, expenses with budget
// admission, and the reporting endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"expenseapi/internal/auth"
	"expenseapi/internal/log"
	"expenseapi/internal/services"
)

type Server struct {
	logger *log.Logger

	authService *services.AuthService
	users       *services.UserService
	categories  *services.CategoryService
	statuses    *services.StatusService
	expenses    *services.ExpenseService
	budgets     *services.BudgetService
	budgetRepo  services.BudgetRepository

	tokens    *auth.TokenManager
	blacklist *auth.Blacklist
}

type Deps struct {
	Logger      *log.Logger
	AuthService *services.AuthService
	Users       *services.UserService
	Categories  *services.CategoryService
	Statuses    *services.StatusService
	Expenses    *services.ExpenseService
	Budgets     *services.BudgetService
	BudgetRepo  services.BudgetRepository
	Tokens      *auth.TokenManager
	Blacklist   *auth.Blacklist
}

func NewServer(deps Deps) *Server {
	return &Server{
		logger:      deps.Logger,
		authService: deps.AuthService,
		users:       deps.Users,
		categories:  deps.Categories,
		statuses:    deps.Statuses,
		expenses:    deps.Expenses,
		budgets:     deps.Budgets,
		budgetRepo:  deps.BudgetRepo,
		tokens:      deps.Tokens,
		blacklist:   deps.Blacklist,
	}
}

// Routes builds the router. Login, signup and health are public; everything
// else requires a bearer token.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger.WithComponent("http")))

	r.Get("/actuator/health", s.handleHealth)
	r.Post("/v1/auth/login", s.handleLogin)
	r.Post("/v1/users", s.handleCreateUser)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.tokens, s.blacklist))

		r.Post("/v1/auth/logout", s.handleLogout)

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetUser)
				r.Put("/", s.handleUpdateUser)
				r.Delete("/", s.handleDeleteUser)
				r.Patch("/status", s.handleToggleUserStatus)
				r.Get("/settings", s.handleGetSettings)
				r.Put("/settings", s.handleSaveSettings)
			})
		})

		r.Route("/v1/expense-categories", func(r chi.Router) {
			r.Post("/", s.handleCreateCategory)
			r.Get("/", s.handleListCategories)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCategory)
				r.Put("/", s.handleUpdateCategory)
				r.Delete("/", s.handleDeleteCategory)
				r.Patch("/status", s.handleToggleCategoryStatus)
				r.Get("/budget-status", s.handleCurrentBudgetStatus)
				r.Get("/budgets", s.handleListBudgets)
				r.Post("/budgets", s.handleUpsertBudget)
				r.Route("/budgets/{year}/{month}", func(r chi.Router) {
					r.Get("/status", s.handleBudgetStatus)
					r.Patch("/allow-overspend", s.handleAllowOverspend)
					r.Delete("/", s.handleDeleteBudget)
				})
			})
		})

		r.Route("/v1/expenses", func(r chi.Router) {
			r.Post("/", s.handleCreateExpense)
			r.Get("/", s.handleSearchExpenses)
			r.Get("/reports", s.handleExpenseReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetExpense)
				r.Put("/", s.handleUpdateExpense)
				r.Delete("/", s.handleDeleteExpense)
			})
		})

		r.Route("/v1/expense-statuses", func(r chi.Router) {
			r.Post("/", s.handleCreateStatus)
			r.Get("/", s.handleListStatuses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetStatus)
				r.Put("/", s.handleUpdateStatus)
				r.Delete("/", s.handleDeleteStatus)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) composer() *dtoComposer {
	return newDTOComposer(s.categories, s.statuses, s.budgetRepo)
}
