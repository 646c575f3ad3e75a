package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expenseapi/internal/core"
)

// CategoryRepository is the ordered-tree store behind the category service.
type CategoryRepository interface {
	Create(ctx context.Context, c *core.ExpenseCategory) error
	Update(ctx context.Context, c core.ExpenseCategory) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (core.ExpenseCategory, error)
	FindByName(ctx context.Context, name string) (core.ExpenseCategory, error)
	FindAll(ctx context.Context) ([]core.ExpenseCategory, error)
}

// StatusBatcher is the budget engine's batch entry point, used to decorate
// category listings.
type StatusBatcher interface {
	BatchStatus(ctx context.Context, categoryIDs []int64, year, month int) (map[int64]core.BudgetStatus, error)
}

// CategoryService manages the ordered category tree.
type CategoryService struct {
	categories CategoryRepository
	budgets    BudgetRepository
	batcher    StatusBatcher
}

func NewCategoryService(categories CategoryRepository, budgets BudgetRepository, batcher StatusBatcher) *CategoryService {
	return &CategoryService{categories: categories, budgets: budgets, batcher: batcher}
}

// CreateCategoryInput carries a create request. Level zero appends to the
// sibling group; Status defaults to ACTIVE.
type CreateCategoryInput struct {
	Name     string
	Status   core.CategoryStatus
	Level    int
	ParentID *int64
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (core.ExpenseCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.ExpenseCategory{}, fmt.Errorf("%w: category name is required", core.ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = core.CategoryActive
	}
	if !status.Valid() {
		return core.ExpenseCategory{}, fmt.Errorf("%w: unknown category status %q", core.ErrInvalidInput, in.Status)
	}

	c := core.ExpenseCategory{
		Name:     name,
		Status:   status,
		Level:    in.Level,
		ParentID: in.ParentID,
		Audit:    stampAudit(ctx),
	}
	if err := s.categories.Create(ctx, &c); err != nil {
		return core.ExpenseCategory{}, err
	}
	return c, nil
}

// UpdateCategoryInput is a partial update; nil fields keep current values.
// Level zero means "keep unless the parent changed".
type UpdateCategoryInput struct {
	Name     *string
	Status   *core.CategoryStatus
	Level    *int
	ParentID *int64
}

func (s *CategoryService) Update(ctx context.Context, id int64, in UpdateCategoryInput) (core.ExpenseCategory, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return core.ExpenseCategory{}, err
	}

	parentChanged := in.ParentID != nil && !sameParent(c.ParentID, in.ParentID)

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return core.ExpenseCategory{}, fmt.Errorf("%w: category name is required", core.ErrInvalidInput)
		}
		c.Name = name
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return core.ExpenseCategory{}, fmt.Errorf("%w: unknown category status %q", core.ErrInvalidInput, *in.Status)
		}
		c.Status = *in.Status
	}

	switch {
	case in.Level != nil:
		c.Level = *in.Level
	case parentChanged:
		// no level given on a move: append to the new group
		c.Level = 0
	}
	if in.ParentID != nil {
		c.ParentID = in.ParentID
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return core.ExpenseCategory{}, err
	}
	return s.categories.FindByID(ctx, id)
}

// ToggleStatus flips a category between ACTIVE and INACTIVE.
func (s *CategoryService) ToggleStatus(ctx context.Context, id int64) (core.ExpenseCategory, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	next := core.CategoryActive
	if c.Status == core.CategoryActive {
		next = core.CategoryInactive
	}
	status := next
	return s.Update(ctx, id, UpdateCategoryInput{Status: &status})
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.ExpenseCategory, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CategoryService) GetByName(ctx context.Context, name string) (core.ExpenseCategory, error) {
	return s.categories.FindByName(ctx, name)
}

func (s *CategoryService) List(ctx context.Context) ([]core.ExpenseCategory, error) {
	return s.categories.FindAll(ctx)
}

// CategoryDetails decorates one category with its budget rows and its live
// status for the current month.
type CategoryDetails struct {
	core.ExpenseCategory
	Budgets      []core.ExpenseCategoryBudget `json:"budgets"`
	BudgetStatus core.BudgetStatus            `json:"budgetStatus"`
}

// ListWithDetails returns the canonical tree traversal decorated with budgets
// and current-month status. Status for all rows comes from one batch call.
func (s *CategoryService) ListWithDetails(ctx context.Context, now time.Time) ([]CategoryDetails, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	statuses, err := s.batcher.BatchStatus(ctx, ids, now.Year(), int(now.Month()))
	if err != nil {
		return nil, err
	}

	out := make([]CategoryDetails, 0, len(categories))
	for _, c := range categories {
		budgets, err := s.budgets.ListByCategory(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CategoryDetails{
			ExpenseCategory: c,
			Budgets:         budgets,
			BudgetStatus:    statuses[c.ID],
		})
	}
	return out, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
