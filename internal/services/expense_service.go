package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
	"expenseapi/internal/events"
	"expenseapi/internal/storage"
)

// ExpenseRepository is the slice of the expense store the service writes
// through.
type ExpenseRepository interface {
	Create(ctx context.Context, e *core.Expense) error
	Update(ctx context.Context, e core.Expense) error
	FindByID(ctx context.Context, id int64) (core.Expense, error)
	DeleteByID(ctx context.Context, id int64) error
	FindAll(ctx context.Context, sort storage.Sort) ([]core.Expense, error)
	Search(ctx context.Context, q storage.SearchQuery) ([]core.Expense, int64, error)
}

// StatusResolver resolves status labels, including the default row used when
// a create request names none.
type StatusResolver interface {
	FindByID(ctx context.Context, id int64) (core.ExpenseStatus, error)
	FindDefault(ctx context.Context) (core.ExpenseStatus, error)
}

// Admitter is the budget engine's admission entry point.
type Admitter interface {
	Admit(ctx context.Context, categoryID int64, date time.Time, amount decimal.Decimal) error
}

// ExpenseService orchestrates expense writes: reference resolution, budget
// admission, persistence and event publishing.
type ExpenseService struct {
	expenses   ExpenseRepository
	categories CategoryResolver
	statuses   StatusResolver
	budgets    Admitter
	publisher  *events.Publisher
}

func NewExpenseService(expenses ExpenseRepository, categories CategoryResolver, statuses StatusResolver, budgets Admitter, publisher *events.Publisher) *ExpenseService {
	return &ExpenseService{
		expenses:   expenses,
		categories: categories,
		statuses:   statuses,
		budgets:    budgets,
		publisher:  publisher,
	}
}

// CreateExpenseInput carries a create request. StatusID zero means "use the
// default status row".
type CreateExpenseInput struct {
	Date        time.Time
	Designation string
	Amount      decimal.Decimal
	CategoryID  int64
	StatusID    int64
}

// Create resolves references, runs budget admission and persists the
// expense. A denial surfaces as *core.BudgetExceededError.
func (s *ExpenseService) Create(ctx context.Context, in CreateExpenseInput) (core.Expense, error) {
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return core.Expense{}, fmt.Errorf("%w: expense category %d", core.ErrInvalidInput, in.CategoryID)
	}

	statusID := in.StatusID
	if statusID == 0 {
		def, err := s.statuses.FindDefault(ctx)
		if err != nil {
			return core.Expense{}, fmt.Errorf("%w: no expense status given and no default configured", core.ErrInvalidInput)
		}
		statusID = def.ID
	} else if _, err := s.statuses.FindByID(ctx, statusID); err != nil {
		return core.Expense{}, fmt.Errorf("%w: expense status %d", core.ErrInvalidInput, statusID)
	}

	e := core.Expense{
		Date:        in.Date,
		Designation: strings.TrimSpace(in.Designation),
		CategoryID:  in.CategoryID,
		StatusID:    statusID,
		Amount:      in.Amount,
		Audit:       stampAudit(ctx),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.budgets.Admit(ctx, e.CategoryID, e.Date, e.Amount); err != nil {
		return core.Expense{}, err
	}

	if err := s.expenses.Create(ctx, &e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.publish(ctx, events.EventExpenseCreated, e.ID)
	return e, nil
}

// UpdateExpenseInput is a partial update; nil fields keep current values.
type UpdateExpenseInput struct {
	Date        *time.Time
	Designation *string
	Amount      *decimal.Decimal
	CategoryID  *int64
	StatusID    *int64
}

// Update mutates only the provided fields. Changed references must resolve;
// a changed amount must pass the same checks as on create.
func (s *ExpenseService) Update(ctx context.Context, id int64, in UpdateExpenseInput) (core.Expense, error) {
	e, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}

	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Designation != nil {
		e.Designation = strings.TrimSpace(*in.Designation)
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID); err != nil {
			return core.Expense{}, fmt.Errorf("%w: expense category %d", core.ErrInvalidInput, *in.CategoryID)
		}
		e.CategoryID = *in.CategoryID
	}
	if in.StatusID != nil {
		if _, err := s.statuses.FindByID(ctx, *in.StatusID); err != nil {
			return core.Expense{}, fmt.Errorf("%w: expense status %d", core.ErrInvalidInput, *in.StatusID)
		}
		e.StatusID = *in.StatusID
	}

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	touchAudit(ctx, &e.Audit)
	if err := s.expenses.Update(ctx, e); err != nil {
		return core.Expense{}, err
	}
	s.publish(ctx, events.EventExpenseUpdated, e.ID)
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.expenses.FindByID(ctx, id)
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.expenses.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EventExpenseDeleted, id)
	return nil
}

func (s *ExpenseService) List(ctx context.Context, sort storage.Sort) ([]core.Expense, error) {
	return s.expenses.FindAll(ctx, sort)
}

// SearchParams carries raw search input. Page is 1-based; nil dates take the
// defaults (first day of the current month through today).
type SearchParams struct {
	Keyword     string
	CategoryIDs []int64
	Start       *time.Time
	End         *time.Time
	Page        int
	Size        int
	Sort        storage.Sort
}

// SearchResult is one page plus its pagination envelope.
type SearchResult struct {
	Data          []core.Expense
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// Search normalizes filters and runs a paged query. Reversed date bounds are
// swapped rather than rejected.
func (s *ExpenseService) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if p.Start != nil {
		start = *p.Start
	}
	if p.End != nil {
		end = *p.End
	}
	if start.After(end) {
		start, end = end, start
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.Size
	if size < 1 {
		size = 20
	}

	data, total, err := s.expenses.Search(ctx, storage.SearchQuery{
		Keyword:     p.Keyword,
		CategoryIDs: dedupeIDs(p.CategoryIDs),
		Start:       start,
		End:         end,
		Offset:      (page - 1) * size,
		Limit:       size,
		Sort:        p.Sort,
	})
	if err != nil {
		return SearchResult{}, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return SearchResult{
		Data:          data,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// publish emits a lifecycle event; failures are logged, never surfaced. The
// expense is already persisted by the time this runs.
func (s *ExpenseService) publish(ctx context.Context, eventType string, id int64) {
	if err := s.publisher.PublishExpense(ctx, eventType, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", eventType, "id", id, "error", err)
	}
}
