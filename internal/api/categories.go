package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
	"expenseapi/internal/services"
)

type createCategoryRequest struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Level    int    `json:"level"`
	ParentID *int64 `json:"parentId"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.categories.Create(r.Context(), services.CreateCategoryInput{
		Name:     req.Name,
		Status:   core.CategoryStatus(req.Status),
		Level:    req.Level,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// handleListCategories returns the canonical traversal decorated with
// budgets and current-month status.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	details, err := s.categories.ListWithDetails(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.categories.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type updateCategoryRequest struct {
	Name     *string `json:"name"`
	Status   *string `json:"status"`
	Level    *int    `json:"level"`
	ParentID *int64  `json:"parentId"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in := services.UpdateCategoryInput{
		Name:     req.Name,
		Level:    req.Level,
		ParentID: req.ParentID,
	}
	if req.Status != nil {
		st := core.CategoryStatus(*req.Status)
		in.Status = &st
	}
	c, err := s.categories.Update(r.Context(), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleCategoryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	c, err := s.categories.ToggleStatus(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// handleCurrentBudgetStatus reports the category's status for the month the
// request arrives in.
func (s *Server) handleCurrentBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := s.categories.Get(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	now := time.Now().UTC()
	status, err := s.budgets.Status(r.Context(), id, now.Year(), int(now.Month()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, month, err := yearMonthParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if _, err := s.categories.Get(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	status, err := s.budgets.Status(r.Context(), id, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	budgets, err := s.budgets.ListBudgets(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budgets)
}

type upsertBudgetRequest struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Budget decimal.Decimal `json:"budget"`
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req upsertBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	b, err := s.budgets.SetBudget(r.Context(), id, req.Year, req.Month, req.Budget)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

type allowOverspendRequest struct {
	AllowOverspend bool `json:"allowOverspend"`
}

func (s *Server) handleAllowOverspend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, month, err := yearMonthParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req allowOverspendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.budgets.SetAllowOverspend(r.Context(), id, year, month, req.AllowOverspend); err != nil {
		respondError(w, r, err)
		return
	}
	b, err := s.budgetRepo.Get(r.Context(), id, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	year, month, err := yearMonthParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.budgets.DeleteBudget(r.Context(), id, year, month); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
