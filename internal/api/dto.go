package api

import (
	"context"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
	"expenseapi/internal/services"
)

// expenseDTO is the wire shape of one expense, with its category and status
// embedded so clients never need follow-up lookups.
type expenseDTO struct {
	ID          int64               `json:"id"`
	ExpenseDate string              `json:"expenseDate"`
	Designation string              `json:"designation"`
	Amount      decimal.Decimal     `json:"amount"`
	Category    *categoryDTO        `json:"expenseCategory,omitempty"`
	Status      *core.ExpenseStatus `json:"expenseStatus,omitempty"`
	Audit       core.Audit          `json:"audit"`
}

type categoryDTO struct {
	core.ExpenseCategory
	Budgets []core.ExpenseCategoryBudget `json:"budgets,omitempty"`
}

// dtoComposer resolves expense references once per request, caching rows so
// list responses do not repeat lookups per row.
type dtoComposer struct {
	categories *services.CategoryService
	statuses   *services.StatusService
	budgets    services.BudgetRepository

	categoryCache map[int64]*categoryDTO
	statusCache   map[int64]*core.ExpenseStatus
}

func newDTOComposer(categories *services.CategoryService, statuses *services.StatusService, budgets services.BudgetRepository) *dtoComposer {
	return &dtoComposer{
		categories:    categories,
		statuses:      statuses,
		budgets:       budgets,
		categoryCache: make(map[int64]*categoryDTO),
		statusCache:   make(map[int64]*core.ExpenseStatus),
	}
}

func (c *dtoComposer) expense(ctx context.Context, e core.Expense) expenseDTO {
	return expenseDTO{
		ID:          e.ID,
		ExpenseDate: e.Date.Format(dateLayout),
		Designation: e.Designation,
		Amount:      e.Amount,
		Category:    c.category(ctx, e.CategoryID),
		Status:      c.status(ctx, e.StatusID),
		Audit:       e.Audit,
	}
}

func (c *dtoComposer) expenses(ctx context.Context, list []core.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(list))
	for _, e := range list {
		out = append(out, c.expense(ctx, e))
	}
	return out
}

// category resolves one category with its budget rows; lookup failures yield
// a nil embed rather than failing the whole response.
func (c *dtoComposer) category(ctx context.Context, id int64) *categoryDTO {
	if dto, ok := c.categoryCache[id]; ok {
		return dto
	}
	cat, err := c.categories.Get(ctx, id)
	if err != nil {
		c.categoryCache[id] = nil
		return nil
	}
	budgets, err := c.budgets.ListByCategory(ctx, id)
	if err != nil {
		budgets = nil
	}
	dto := &categoryDTO{ExpenseCategory: cat, Budgets: budgets}
	c.categoryCache[id] = dto
	return dto
}

func (c *dtoComposer) status(ctx context.Context, id int64) *core.ExpenseStatus {
	if st, ok := c.statusCache[id]; ok {
		return st
	}
	st, err := c.statuses.Get(ctx, id)
	if err != nil {
		c.statusCache[id] = nil
		return nil
	}
	c.statusCache[id] = &st
	return &st
}

// paginationDTO is the envelope around paged lists.
type paginationDTO struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

type pagedExpensesDTO struct {
	Data       []expenseDTO  `json:"data"`
	Pagination paginationDTO `json:"pagination"`
}
