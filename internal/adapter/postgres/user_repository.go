package postgres

import (
	"context"
	"fmt"

	"github.com/ravi-cheetiralaav/app/internal/domain"
)

type userRepository struct {
	db Querier
}

const userColumns = `user_id, first_name, last_name, street_name, street_code, house_number, greeting_word,
	is_active, is_admin, created_at, updated_at`

func scanUser(row Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.UserID, &u.FirstName, &u.LastName, &u.StreetName, &u.StreetCode, &u.HouseNumber,
		&u.GreetingWord, &u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, first_name, last_name, street_name, street_code, house_number,
		                   greeting_word, is_active, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		user.UserID, user.FirstName, user.LastName, user.StreetName, user.StreetCode, user.HouseNumber,
		user.GreetingWord, user.IsActive, user.IsAdmin, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "create user", "user "+user.UserID)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if err != nil {
		return nil, mapError(err, "load user", "user "+userID)
	}
	return u, nil
}

func (r *userRepository) SetActive(ctx context.Context, userID string, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET is_active = $1, updated_at = now() WHERE user_id = $2`, active, userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.ErrNotFound, "user %s", userID)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
