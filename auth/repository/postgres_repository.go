// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/qolzam/metamorph/auth/models"
	"github.com/qolzam/metamorph/internal/database/postgres"
)

// postgresUserRepository implements UserRepository using raw SQL queries
type postgresUserRepository struct {
	client *postgres.Client
}

// NewPostgresUserRepository creates a new PostgreSQL repository for users
func NewPostgresUserRepository(client *postgres.Client) UserRepository {
	return &postgresUserRepository{client: client}
}

const userColumns = `id, email, username, hash, tokens, stage, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, hash, tokens, stage)
		VALUES (:id, :email, :username, :hash, :tokens, :stage)
		RETURNING created_at
	`

	rows, err := sqlx.NamedQueryContext(ctx, r.client.Executor(ctx), query, user)
	if err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintUsersEmail) ||
			postgres.IsUniqueViolation(err, postgres.ConstraintUsersUsername) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&user.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan created user: %w", err)
		}
	}
	return rows.Err()
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	result := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`

	var users []*models.User
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &users, query, pq.Array(idStrings)); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (r *postgresUserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 LIMIT 1`

	var user models.User
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &user, query, login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by login: %w", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) CountByEmailOrUsername(ctx context.Context, email, username string) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE email = $1 OR username = $2`

	var count int64
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &count, query, email, username); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// AdjustTokens updates the balance in one statement so concurrent events never
// overwrite each other's deltas.
func (r *postgresUserRepository) AdjustTokens(ctx context.Context, id uuid.UUID, delta int64, floorAtZero bool) (int64, error) {
	query := `UPDATE users SET tokens = tokens + $1 WHERE id = $2 RETURNING tokens`
	if floorAtZero {
		query = `UPDATE users SET tokens = GREATEST(tokens + $1, 0) WHERE id = $2 RETURNING tokens`
	}

	var balance int64
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &balance, query, delta, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to adjust tokens: %w", err)
	}
	return balance, nil
}
