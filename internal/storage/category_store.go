package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"expenseapi/internal/core"
)

// CategoryStore persists the category tree. Sibling ordering is kept dense:
// within one parent (or among the roots) levels are always 1..N with no gaps,
// and every mutation that could break that runs inside a transaction that
// restores it.
type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, status, level, id_expense_category_parent,
	created_at, created_by, updated_at, updated_by`

func scanCategory(row interface{ Scan(...any) error }) (core.ExpenseCategory, error) {
	var (
		c                                          core.ExpenseCategory
		createdAt, createdBy, updatedAt, updatedBy string
	)
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.Level, &c.ParentID,
		&createdAt, &createdBy, &updatedAt, &updatedBy)
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	scanAudit(&c.Audit, createdAt, createdBy, updatedAt, updatedBy)
	return c, nil
}

// siblingClause matches rows in one sibling group. parentID nil selects the
// top-level group.
func siblingClause(parentID *int64) (string, []any) {
	if parentID == nil {
		return "id_expense_category_parent IS NULL", nil
	}
	return "id_expense_category_parent = ?", []any{*parentID}
}

func maxLevel(ctx context.Context, tx *sql.Tx, parentID *int64) (int, error) {
	clause, args := siblingClause(parentID)
	var max int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(level), 0) FROM expense_categories WHERE `+clause, args...).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max sibling level: %w", err)
	}
	return max, nil
}

// shiftSiblings adds delta to the level of every sibling of parentID whose
// level lies in [from, to].
func shiftSiblings(ctx context.Context, tx *sql.Tx, parentID *int64, from, to, delta int) error {
	clause, args := siblingClause(parentID)
	args = append([]any{delta}, args...)
	args = append(args, from, to)
	_, err := tx.ExecContext(ctx,
		`UPDATE expense_categories SET level = level + ? WHERE `+clause+` AND level >= ? AND level <= ?`,
		args...)
	if err != nil {
		return fmt.Errorf("shift siblings: %w", err)
	}
	return nil
}

func categoryExists(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM expense_categories WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check category %d: %w", id, err)
	}
	return true, nil
}

// wouldCycle walks from candidate up the parent chain and reports whether it
// passes through id.
func wouldCycle(ctx context.Context, tx *sql.Tx, id, candidate int64) (bool, error) {
	cur := candidate
	for {
		if cur == id {
			return true, nil
		}
		var parent sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT id_expense_category_parent FROM expense_categories WHERE id = ?`, cur).Scan(&parent)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("walk ancestors: %w", err)
		}
		if !parent.Valid {
			return false, nil
		}
		cur = parent.Int64
	}
}

// Create inserts a category into its sibling group. Level 0 (or anything past
// the end) appends; a level k in range makes room by shifting siblings at k
// and beyond down one position.
func (s *CategoryStore) Create(ctx context.Context, c *core.ExpenseCategory) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if c.ParentID != nil {
			ok, err := categoryExists(ctx, tx, *c.ParentID)
			if err != nil {
				return err
			}
			if !ok {
				return core.ErrParentNotFound
			}
		}

		max, err := maxLevel(ctx, tx, c.ParentID)
		if err != nil {
			return err
		}
		switch {
		case c.Level <= 0 || c.Level > max:
			c.Level = max + 1
		default:
			if err := shiftSiblings(ctx, tx, c.ParentID, c.Level, max, +1); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO expense_categories (name, status, level, id_expense_category_parent,
				created_at, created_by, updated_at, updated_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			append([]any{c.Name, c.Status, c.Level, c.ParentID}, auditArgs(c.Audit)...)...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
			}
			return fmt.Errorf("insert category: %w", err)
		}
		c.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("category id: %w", err)
		}
		return nil
	})
	return err
}

// Update rewrites a category and reflows sibling levels. A nil ParentID on
// the incoming value keeps the current parent. Within one group a level move
// rotates the rows in between; across groups the old group closes its gap and
// the new group opens one.
func (s *CategoryStore) Update(ctx context.Context, c core.ExpenseCategory) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		old, err := findCategoryTx(ctx, tx, c.ID)
		if err != nil {
			return err
		}

		newParent := old.ParentID
		if c.ParentID != nil {
			newParent = c.ParentID
		}
		if newParent != nil {
			if *newParent == c.ID {
				return core.ErrCategoryCycle
			}
			ok, err := categoryExists(ctx, tx, *newParent)
			if err != nil {
				return err
			}
			if !ok {
				return core.ErrParentNotFound
			}
			cyc, err := wouldCycle(ctx, tx, c.ID, *newParent)
			if err != nil {
				return err
			}
			if cyc {
				return core.ErrCategoryCycle
			}
		}

		sameGroup := equalParent(old.ParentID, newParent)
		newLevel := c.Level

		if sameGroup {
			max, err := maxLevel(ctx, tx, newParent)
			if err != nil {
				return err
			}
			if newLevel <= 0 || newLevel > max {
				newLevel = max
			}
			switch {
			case newLevel < old.Level:
				if err := shiftSiblings(ctx, tx, newParent, newLevel, old.Level-1, +1); err != nil {
					return err
				}
			case newLevel > old.Level:
				if err := shiftSiblings(ctx, tx, newParent, old.Level+1, newLevel, -1); err != nil {
					return err
				}
			}
		} else {
			// close the gap left behind, then make room in the new group
			oldMax, err := maxLevel(ctx, tx, old.ParentID)
			if err != nil {
				return err
			}
			if err := shiftSiblings(ctx, tx, old.ParentID, old.Level+1, oldMax, -1); err != nil {
				return err
			}
			newMax, err := maxLevel(ctx, tx, newParent)
			if err != nil {
				return err
			}
			if newLevel <= 0 || newLevel > newMax {
				newLevel = newMax + 1
			} else {
				if err := shiftSiblings(ctx, tx, newParent, newLevel, newMax, +1); err != nil {
					return err
				}
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE expense_categories
			SET name = ?, status = ?, level = ?, id_expense_category_parent = ?,
				updated_at = ?, updated_by = ?
			WHERE id = ?`,
			c.Name, c.Status, newLevel, newParent,
			fmtTime(c.UpdatedAt), c.UpdatedBy, c.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("category %q: %w", c.Name, core.ErrConflict)
			}
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
}

// Delete removes a category and closes the level gap among its siblings.
// Categories still referenced by expenses or child categories cannot be
// deleted.
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		old, err := findCategoryTx(ctx, tx, id)
		if err != nil {
			return err
		}

		var refs int
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM expenses WHERE id_expense_category = ?)
			      + (SELECT COUNT(*) FROM expense_categories WHERE id_expense_category_parent = ?)`,
			id, id).Scan(&refs); err != nil {
			return fmt.Errorf("count category references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("category %d is in use: %w", id, core.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM expense_categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}

		max, err := maxLevel(ctx, tx, old.ParentID)
		if err != nil {
			return err
		}
		return shiftSiblings(ctx, tx, old.ParentID, old.Level+1, max, -1)
	})
}

func findCategoryTx(ctx context.Context, tx *sql.Tx, id int64) (core.ExpenseCategory, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM expense_categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return core.ExpenseCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (s *CategoryStore) FindByID(ctx context.Context, id int64) (core.ExpenseCategory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM expense_categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return core.ExpenseCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, name string) (core.ExpenseCategory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM expense_categories WHERE name = ?`, name)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return core.ExpenseCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("get category %q: %w", name, err)
	}
	return c, nil
}

// FindAll returns the whole tree flattened in canonical order: each root in
// level order, immediately followed by its subtree, depth first.
func (s *CategoryStore) FindAll(ctx context.Context) ([]core.ExpenseCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM expense_categories`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var all []core.ExpenseCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flattenTree(all), nil
}

func equalParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// flattenTree orders categories depth first, siblings by level.
func flattenTree(all []core.ExpenseCategory) []core.ExpenseCategory {
	children := make(map[int64][]core.ExpenseCategory)
	var roots []core.ExpenseCategory
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}
	byLevel := func(cs []core.ExpenseCategory) {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Level < cs[j].Level })
	}
	byLevel(roots)
	for _, cs := range children {
		byLevel(cs)
	}

	out := make([]core.ExpenseCategory, 0, len(all))
	var walk func(cs []core.ExpenseCategory)
	walk = func(cs []core.ExpenseCategory) {
		for _, c := range cs {
			out = append(out, c)
			walk(children[c.ID])
		}
	}
	walk(roots)
	return out
}
