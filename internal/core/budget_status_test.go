package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStatusForBudget(t *testing.T) {
	tests := []struct {
		name           string
		budget         string
		spent          string
		allowOverspend bool
		wantRemaining  string
		wantOver       bool
	}{
		{name: "under budget", budget: "100.00", spent: "70.00", allowOverspend: false, wantRemaining: "30.00", wantOver: false},
		{name: "exactly at budget", budget: "100.00", spent: "100.00", allowOverspend: false, wantRemaining: "0.00", wantOver: false},
		{name: "over budget strict", budget: "200.00", spent: "250.00", allowOverspend: false, wantRemaining: "-50.00", wantOver: true},
		{name: "over budget allowed", budget: "200.00", spent: "250.00", allowOverspend: true, wantRemaining: "-50.00", wantOver: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ExpenseCategoryBudget{Budget: d(tt.budget), AllowOverspend: tt.allowOverspend}
			got := StatusForBudget(b, d(tt.spent))
			if !got.HasBudget {
				t.Fatal("HasBudget should be true")
			}
			if !got.Remaining.Equal(d(tt.wantRemaining)) {
				t.Errorf("Remaining = %s, want %s", got.Remaining, tt.wantRemaining)
			}
			if got.OverBudget != tt.wantOver {
				t.Errorf("OverBudget = %v, want %v", got.OverBudget, tt.wantOver)
			}
		})
	}
}

func TestNoBudgetStatus(t *testing.T) {
	got := NoBudgetStatus(d("42.00"))
	if got.HasBudget {
		t.Error("HasBudget should be false")
	}
	if got.OverBudget {
		t.Error("OverBudget must be false without a budget")
	}
	if !got.Spent.Equal(d("42.00")) {
		t.Errorf("Spent = %s, want 42.00", got.Spent)
	}
}

func TestBudgetStatusJSON(t *testing.T) {
	t.Run("no budget marshals nulls", func(t *testing.T) {
		body, err := json.Marshal(NoBudgetStatus(d("10.00")))
		if err != nil {
			t.Fatal(err)
		}
		s := string(body)
		for _, want := range []string{`"budget":null`, `"remaining":null`, `"allowOverspend":null`, `"overBudget":false`} {
			if !strings.Contains(s, want) {
				t.Errorf("marshaled %s, missing %s", s, want)
			}
		}
	})

	t.Run("round trip with budget", func(t *testing.T) {
		in := StatusForBudget(ExpenseCategoryBudget{Budget: d("100.00"), AllowOverspend: false}, d("120.00"))
		body, err := json.Marshal(in)
		if err != nil {
			t.Fatal(err)
		}
		var out BudgetStatus
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatal(err)
		}
		if !out.HasBudget || !out.Budget.Equal(d("100.00")) || !out.Remaining.Equal(d("-20.00")) || !out.OverBudget {
			t.Errorf("round trip mismatch: %+v", out)
		}
	})
}
