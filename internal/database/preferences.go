package database

import (
	"context"
	"database/sql"
	"errors"

	"namozvaqti/internal/models"
)

const selectPreference = `SELECT user_id, COALESCE(city, ''), daily_notify, created_at, updated_at FROM users`

// UpsertCity сохраняет выбранный город. Новый пользователь создается с выключенной рассылкой,
// у существующего меняется только город.
func (db *DB) UpsertCity(ctx context.Context, userID int64, city string) error {
	query := `INSERT INTO users (user_id, city, daily_notify, created_at, updated_at)
              VALUES (?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
              ON CONFLICT(user_id) DO UPDATE SET
                city = excluded.city,
                updated_at = CURRENT_TIMESTAMP`
	if _, err := db.ExecContext(ctx, query, userID, city); err != nil {
		return wrap("upsert city", err)
	}
	return nil
}

// SetDailyNotify включает или выключает ежедневную рассылку. Если пользователя еще нет,
// создается запись с пустым городом.
func (db *DB) SetDailyNotify(ctx context.Context, userID int64, enabled bool) error {
	query := `INSERT INTO users (user_id, city, daily_notify, created_at, updated_at)
              VALUES (?, '', ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
              ON CONFLICT(user_id) DO UPDATE SET
                daily_notify = excluded.daily_notify,
                updated_at = CURRENT_TIMESTAMP`
	if _, err := db.ExecContext(ctx, query, userID, enabled); err != nil {
		return wrap("set daily notify", err)
	}
	return nil
}

// ListOptedIn возвращает всех пользователей с daily_notify = 1.
func (db *DB) ListOptedIn(ctx context.Context) ([]models.UserPreference, error) {
	rows, err := db.QueryContext(ctx, selectPreference+` WHERE daily_notify = 1 ORDER BY user_id`)
	if err != nil {
		return nil, wrap("list opted in", err)
	}
	defer rows.Close()

	var prefs []models.UserPreference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, wrap("list opted in", err)
		}
		prefs = append(prefs, *pref)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list opted in", err)
	}
	return prefs, nil
}

func (db *DB) GetPreference(ctx context.Context, userID int64) (*models.UserPreference, error) {
	row := db.QueryRowContext(ctx, selectPreference+` WHERE user_id = ?`, userID)
	pref, err := scanPreference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap("get preference", ErrUserNotFound)
	}
	if err != nil {
		return nil, wrap("get preference", err)
	}
	return pref, nil
}

// CountUsers returns the number of stored users and how many of them are opted in.
func (db *DB) CountUsers(ctx context.Context) (total, optedIn int, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN daily_notify = 1 THEN 1 ELSE 0 END), 0) FROM users`
	if err := db.QueryRowContext(ctx, query).Scan(&total, &optedIn); err != nil {
		return 0, 0, wrap("count users", err)
	}
	return total, optedIn, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreference(s scanner) (*models.UserPreference, error) {
	var (
		pref      models.UserPreference
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)
	if err := s.Scan(&pref.UserID, &pref.City, &pref.DailyNotify, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	pref.CreatedAt = createdAt.Time
	pref.UpdatedAt = updatedAt.Time
	return &pref, nil
}
