// Package seed loads demo data on startup when the SEED_DATA flag is set.
// Seeding is idempotent: it backs off as soon as it finds existing rows.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/log"
	"expenseapi/internal/services"
)

type Seeder struct {
	categories *services.CategoryService
	statuses   *services.StatusService
	expenses   *services.ExpenseService
	logger     *log.Logger
}

func New(categories *services.CategoryService, statuses *services.StatusService, expenses *services.ExpenseService, logger *log.Logger) *Seeder {
	return &Seeder{
		categories: categories,
		statuses:   statuses,
		expenses:   expenses,
		logger:     logger.WithComponent("seed"),
	}
}

// Run inserts the demo data set: three statuses with Pending as default,
// five categories, weekly expenses across the current year and monthly ones
// across the previous year.
func (s *Seeder) Run(ctx context.Context) error {
	existing, err := s.statuses.List(ctx)
	if err != nil {
		return fmt.Errorf("check existing statuses: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("Data already present, skipping seed")
		return nil
	}

	pending, err := s.statuses.Create(ctx, "Pending", true)
	if err != nil {
		return fmt.Errorf("seed statuses: %w", err)
	}
	for _, name := range []string{"Approved", "Rejected"} {
		if _, err := s.statuses.Create(ctx, name, false); err != nil {
			return fmt.Errorf("seed statuses: %w", err)
		}
	}

	names := []string{"Groceries", "Transport", "Utilities", "Leisure", "Health"}
	categoryIDs := make([]int64, 0, len(names))
	for _, name := range names {
		c, err := s.categories.Create(ctx, services.CreateCategoryInput{Name: name})
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		categoryIDs = append(categoryIDs, c.ID)
	}

	now := time.Now().UTC()
	count := 0

	// weekly expenses across the current year, up to today
	day := time.Date(now.Year(), 1, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; !day.After(now); i++ {
		if err := s.createExpense(ctx, day, categoryIDs[i%len(categoryIDs)], pending.ID, i); err != nil {
			return err
		}
		count++
		day = day.AddDate(0, 0, 7)
	}

	// one expense per month across the previous year
	for month := 1; month <= 12; month++ {
		day := time.Date(now.Year()-1, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
		if err := s.createExpense(ctx, day, categoryIDs[month%len(categoryIDs)], pending.ID, month); err != nil {
			return err
		}
		count++
	}

	s.logger.Info("Seeded demo data",
		"statuses", 3, "categories", len(categoryIDs), "expenses", count)
	return nil
}

func (s *Seeder) createExpense(ctx context.Context, day time.Time, categoryID, statusID int64, n int) error {
	amount := decimal.New(int64(1000+n*137%9000), -2) // 10.00 .. 99.99 range
	_, err := s.expenses.Create(ctx, services.CreateExpenseInput{
		Date:        day,
		Designation: fmt.Sprintf("Demo expense %s", day.Format("2006-01-02")),
		Amount:      amount,
		CategoryID:  categoryID,
		StatusID:    statusID,
	})
	if err != nil {
		return fmt.Errorf("seed expense on %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}
