package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the live picture of one category in one month. It has two
// shapes: when no budget row exists only Spent is meaningful and OverBudget
// is always false; when a budget exists the remaining fields are filled in.
// HasBudget is the discriminator.
type BudgetStatus struct {
	HasBudget      bool
	Budget         decimal.Decimal
	Spent          decimal.Decimal
	Remaining      decimal.Decimal
	AllowOverspend bool
	OverBudget     bool
}

// NoBudgetStatus builds the "no envelope" shape for a given spent total.
func NoBudgetStatus(spent decimal.Decimal) BudgetStatus {
	return BudgetStatus{Spent: spent}
}

// StatusForBudget composes the "with envelope" shape. OverBudget is only
// ever true when overspend is disallowed.
func StatusForBudget(b ExpenseCategoryBudget, spent decimal.Decimal) BudgetStatus {
	return BudgetStatus{
		HasBudget:      true,
		Budget:         b.Budget,
		Spent:          spent,
		Remaining:      b.Budget.Sub(spent),
		AllowOverspend: b.AllowOverspend,
		OverBudget:     !b.AllowOverspend && spent.GreaterThan(b.Budget),
	}
}

type budgetStatusJSON struct {
	Budget         *decimal.Decimal `json:"budget"`
	Spent          decimal.Decimal  `json:"spent"`
	Remaining      *decimal.Decimal `json:"remaining"`
	AllowOverspend *bool            `json:"allowOverspend"`
	OverBudget     bool             `json:"overBudget"`
}

func (s BudgetStatus) MarshalJSON() ([]byte, error) {
	out := budgetStatusJSON{Spent: s.Spent, OverBudget: s.OverBudget}
	if s.HasBudget {
		b, r, a := s.Budget, s.Remaining, s.AllowOverspend
		out.Budget, out.Remaining, out.AllowOverspend = &b, &r, &a
	}
	return json.Marshal(out)
}

func (s *BudgetStatus) UnmarshalJSON(data []byte) error {
	var in budgetStatusJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = BudgetStatus{Spent: in.Spent, OverBudget: in.OverBudget}
	if in.Budget != nil {
		s.HasBudget = true
		s.Budget = *in.Budget
		if in.Remaining != nil {
			s.Remaining = *in.Remaining
		}
		if in.AllowOverspend != nil {
			s.AllowOverspend = *in.AllowOverspend
		}
	}
	return nil
}
