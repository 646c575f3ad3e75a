package services

import (
	"context"
	"fmt"
	"strings"

	"expenseapi/internal/core"
)

// StatusRepository persists expense status labels.
type StatusRepository interface {
	Create(ctx context.Context, st *core.ExpenseStatus) error
	Update(ctx context.Context, st core.ExpenseStatus) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (core.ExpenseStatus, error)
	FindByName(ctx context.Context, name string) (core.ExpenseStatus, error)
	FindDefault(ctx context.Context) (core.ExpenseStatus, error)
	FindAll(ctx context.Context) ([]core.ExpenseStatus, error)
}

// StatusService manages expense status labels. The store guarantees at most
// one default row.
type StatusService struct {
	statuses StatusRepository
}

func NewStatusService(statuses StatusRepository) *StatusService {
	return &StatusService{statuses: statuses}
}

func (s *StatusService) Create(ctx context.Context, name string, isDefault bool) (core.ExpenseStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ExpenseStatus{}, fmt.Errorf("%w: status name is required", core.ErrInvalidInput)
	}
	st := core.ExpenseStatus{
		Name:      name,
		IsDefault: isDefault,
		Audit:     stampAudit(ctx),
	}
	if err := s.statuses.Create(ctx, &st); err != nil {
		return core.ExpenseStatus{}, err
	}
	return st, nil
}

// UpdateStatusInput is a partial update; nil fields keep current values.
type UpdateStatusInput struct {
	Name      *string
	IsDefault *bool
}

func (s *StatusService) Update(ctx context.Context, id int64, in UpdateStatusInput) (core.ExpenseStatus, error) {
	st, err := s.statuses.FindByID(ctx, id)
	if err != nil {
		return core.ExpenseStatus{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return core.ExpenseStatus{}, fmt.Errorf("%w: status name is required", core.ErrInvalidInput)
		}
		st.Name = name
	}
	if in.IsDefault != nil {
		st.IsDefault = *in.IsDefault
	}
	touchAudit(ctx, &st.Audit)
	if err := s.statuses.Update(ctx, st); err != nil {
		return core.ExpenseStatus{}, err
	}
	return st, nil
}

func (s *StatusService) Delete(ctx context.Context, id int64) error {
	return s.statuses.Delete(ctx, id)
}

func (s *StatusService) Get(ctx context.Context, id int64) (core.ExpenseStatus, error) {
	return s.statuses.FindByID(ctx, id)
}

func (s *StatusService) List(ctx context.Context) ([]core.ExpenseStatus, error) {
	return s.statuses.FindAll(ctx)
}
