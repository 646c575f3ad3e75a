package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an id fails to resolve to a row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on uniqueness violations (category name,
	// status name, user email).
	ErrConflict = errors.New("already exists")
	// ErrInvalidInput marks caller mistakes that map to 400.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrAmountScale      = fmt.Errorf("%w: amount has more than two decimal places", ErrInvalidInput)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidYear      = fmt.Errorf("%w: year out of range", ErrInvalidInput)
	ErrInvalidMonth     = fmt.Errorf("%w: month must be 1..12", ErrInvalidInput)
	ErrEmptyDesignation = fmt.Errorf("%w: designation is required", ErrInvalidInput)
	ErrCategoryRequired = fmt.Errorf("%w: expense category is required", ErrInvalidInput)
	ErrStatusRequired   = fmt.Errorf("%w: expense status is required", ErrInvalidInput)
	ErrParentNotFound   = fmt.Errorf("%w: parent category not found", ErrInvalidInput)
	ErrCategoryCycle    = fmt.Errorf("%w: category cannot become its own descendant", ErrInvalidInput)
)

// BudgetExceededError is the admission denial. It carries the full numeric
// envelope so the HTTP layer can surface it verbatim.
type BudgetExceededError struct {
	CategoryID     int64           `json:"categoryId"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Budget         decimal.Decimal `json:"budget"`
	Spent          decimal.Decimal `json:"spent"`
	AttemptedTotal decimal.Decimal `json:"attemptedTotal"`
	AllowOverspend bool            `json:"allowOverspend"`
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("expense would exceed monthly budget for category %d (%d-%02d): budget=%s spent=%s attempted=%s",
		e.CategoryID, e.Year, e.Month, e.Budget, e.Spent, e.AttemptedTotal)
}
