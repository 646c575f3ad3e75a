package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/auth"
	"expenseapi/internal/core"
	"expenseapi/internal/services"
)

type createExpenseRequest struct {
	ExpenseDate string          `json:"expenseDate"`
	Designation string          `json:"designation"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"expenseCategoryId"`
	StatusID    int64           `json:"expenseStatusId"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	date, err := time.Parse(dateLayout, req.ExpenseDate)
	if err != nil {
		respondFieldErrors(w, map[string]string{"expenseDate": "must be YYYY-MM-DD"})
		return
	}

	e, err := s.expenses.Create(r.Context(), services.CreateExpenseInput{
		Date:        date,
		Designation: req.Designation,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		StatusID:    req.StatusID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.composer().expense(r.Context(), e))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.composer().expense(r.Context(), e))
}

type updateExpenseRequest struct {
	ExpenseDate *string          `json:"expenseDate"`
	Designation *string          `json:"designation"`
	Amount      *decimal.Decimal `json:"amount"`
	CategoryID  *int64           `json:"expenseCategoryId"`
	StatusID    *int64           `json:"expenseStatusId"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	in := services.UpdateExpenseInput{
		Designation: req.Designation,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		StatusID:    req.StatusID,
	}
	if req.ExpenseDate != nil {
		date, err := time.Parse(dateLayout, *req.ExpenseDate)
		if err != nil {
			respondFieldErrors(w, map[string]string{"expenseDate": "must be YYYY-MM-DD"})
			return
		}
		in.Date = &date
	}

	e, err := s.expenses.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.composer().expense(r.Context(), e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchExpenses(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", "1")
	if err != nil {
		respondError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", "20")
	if err != nil {
		respondError(w, r, err)
		return
	}
	ids, err := queryCategoryIDs(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	start, err := queryDate(r, "startDate")
	if err != nil {
		respondError(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.expenses.Search(r.Context(), services.SearchParams{
		Keyword:     r.URL.Query().Get("keyword"),
		CategoryIDs: ids,
		Start:       start,
		End:         end,
		Page:        page,
		Size:        size,
		Sort:        querySort(r),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, pagedExpensesDTO{
		Data: s.composer().expenses(r.Context(), result.Data),
		Pagination: paginationDTO{
			Page:          result.Page,
			Size:          result.Size,
			TotalElements: result.TotalElements,
			TotalPages:    result.TotalPages,
		},
	})
}

// handleExpenseReport aggregates spend into year/month rollups. A year
// parameter narrows the window to that calendar year; otherwise the report
// spans all recorded history up to today.
func (s *Server) handleExpenseReport(w http.ResponseWriter, r *http.Request) {
	ids, err := queryCategoryIDs(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	now := time.Now().UTC()
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := queryInt(r, "year", "")
		if err != nil || year < 1970 || year > 9999 {
			respondError(w, r, fmt.Errorf("%w: year must be 1970..9999", core.ErrInvalidInput))
			return
		}
		start = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	}

	report, err := s.budgets.Report(r.Context(), start, end, ids, s.requestSettings(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// requestSettings resolves the display settings of the authenticated user;
// anonymous or unresolvable principals fall back to defaults.
func (s *Server) requestSettings(r *http.Request) core.UserSettings {
	defaults := core.UserSettings{Currency: "USD", DecimalDigits: 2, WeekStart: "MONDAY"}

	email := auth.Principal(r.Context())
	if email == auth.SystemPrincipal {
		return defaults
	}
	u, err := s.users.GetByEmail(r.Context(), email)
	if err != nil {
		return defaults
	}
	settings, err := s.users.GetSettings(r.Context(), u.ID)
	if err != nil {
		return defaults
	}
	return settings
}
