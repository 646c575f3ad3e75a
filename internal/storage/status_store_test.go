package storage

import (
	"context"
	"errors"
	"testing"

	"expenseapi/internal/core"
)

func countDefaults(t *testing.T, s *StatusStore) int {
	t.Helper()
	all, err := s.FindAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, st := range all {
		if st.IsDefault {
			n++
		}
	}
	return n
}

func TestStatusDefaultExclusivity(t *testing.T) {
	db := openTestDB(t)
	s := NewStatusStore(db)
	ctx := context.Background()

	a := mustCreateStatus(t, s, "A", true)
	b := mustCreateStatus(t, s, "B", true)

	if n := countDefaults(t, s); n != 1 {
		t.Fatalf("defaults = %d, want 1", n)
	}
	def, err := s.FindDefault(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != b.ID {
		t.Errorf("default should be the most recently promoted, got %q", def.Name)
	}

	// promoting via update demotes the rest too
	a.IsDefault = true
	if err := s.Update(ctx, a); err != nil {
		t.Fatal(err)
	}
	if n := countDefaults(t, s); n != 1 {
		t.Fatalf("defaults after update = %d, want 1", n)
	}
	def, err = s.FindDefault(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if def.ID != a.ID {
		t.Errorf("default should be A, got %q", def.Name)
	}
}

func TestStatusNameConflict(t *testing.T) {
	db := openTestDB(t)
	s := NewStatusStore(db)
	ctx := context.Background()

	mustCreateStatus(t, s, "Pending", false)
	dup := core.ExpenseStatus{Name: "Pending", Audit: testAudit()}
	if err := s.Create(ctx, &dup); !errors.Is(err, core.ErrConflict) {
		t.Errorf("duplicate name should conflict, got %v", err)
	}
}

func TestStatusDeleteInUse(t *testing.T) {
	db := openTestDB(t)
	statuses := NewStatusStore(db)
	categories := NewCategoryStore(db)
	expenses := NewExpenseStore(db)
	ctx := context.Background()

	st := mustCreateStatus(t, statuses, "Pending", true)
	cat := mustCreateCategory(t, categories, "Food", 0, nil)
	mustCreateExpense(t, expenses, cat.ID, st.ID, "2025-06-01", "1.00")

	if err := statuses.Delete(ctx, st.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("deleting a referenced status should conflict, got %v", err)
	}

	unused := mustCreateStatus(t, statuses, "Unused", false)
	if err := statuses.Delete(ctx, unused.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := statuses.FindByID(ctx, unused.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted status should be gone, got %v", err)
	}
}

func TestStatusFindDefaultMissing(t *testing.T) {
	db := openTestDB(t)
	s := NewStatusStore(db)

	mustCreateStatus(t, s, "A", false)
	if _, err := s.FindDefault(context.Background()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("no default configured should be not found, got %v", err)
	}
}
