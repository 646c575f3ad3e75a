package storage

import (
	"context"
	"database/sql"
	"fmt"

	"expenseapi/internal/core"
)

// SettingsStore persists per-user display settings. Each user has at most one
// row; Save upserts it.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) FindByUser(ctx context.Context, userID int64) (core.UserSettings, error) {
	var (
		us                                         core.UserSettings
		placement                                  sql.NullString
		createdAt, createdBy, updatedAt, updatedBy string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, id_user, currency, decimal_digits, week_start, currency_symbol_placement,
			created_at, created_by, updated_at, updated_by
		FROM user_settings WHERE id_user = ?`, userID).
		Scan(&us.ID, &us.UserID, &us.Currency, &us.DecimalDigits, &us.WeekStart, &placement,
			&createdAt, &createdBy, &updatedAt, &updatedBy)
	if err == sql.ErrNoRows {
		return core.UserSettings{}, core.ErrNotFound
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get settings for user %d: %w", userID, err)
	}
	if placement.Valid {
		p := core.SymbolPlacement(placement.String)
		us.Placement = &p
	}
	scanAudit(&us.Audit, createdAt, createdBy, updatedAt, updatedBy)
	return us, nil
}

func (s *SettingsStore) Save(ctx context.Context, us *core.UserSettings) error {
	var placement *string
	if us.Placement != nil {
		p := string(*us.Placement)
		placement = &p
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE user_settings
		SET currency = ?, decimal_digits = ?, week_start = ?, currency_symbol_placement = ?,
			updated_at = ?, updated_by = ?
		WHERE id_user = ?`,
		us.Currency, us.DecimalDigits, us.WeekStart, placement,
		fmtTime(us.UpdatedAt), us.UpdatedBy, us.UserID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	ins, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (id_user, currency, decimal_digits, week_start, currency_symbol_placement,
			created_at, created_by, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{us.UserID, us.Currency, us.DecimalDigits, us.WeekStart, placement}, auditArgs(us.Audit)...)...)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	us.ID, err = ins.LastInsertId()
	if err != nil {
		return fmt.Errorf("settings id: %w", err)
	}
	return nil
}
