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
	"github.com/qolzam/metamorph/contents/models"
	"github.com/qolzam/metamorph/internal/database/postgres"
)

type postgresContentRepository struct {
	client *postgres.Client
}

// NewPostgresContentRepository creates a new PostgreSQL repository for contents
func NewPostgresContentRepository(client *postgres.Client) ContentRepository {
	return &postgresContentRepository{client: client}
}

const contentColumns = `id, url, type, title, description, teaser_image_url, og, created_at`

func (r *postgresContentRepository) FindByURL(ctx context.Context, url string) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE url = $1`

	var content models.Content
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &content, query, url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to find content by url: %w", err)
	}
	return &content, nil
}

func (r *postgresContentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`

	var content models.Content
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &content, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to find content: %w", err)
	}
	return &content, nil
}

// FindByIDs bulk loads contents to avoid N+1 queries when listing submissions
func (r *postgresContentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Content, error) {
	result := make(map[uuid.UUID]*models.Content, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = ANY($1::uuid[])`

	var rows []*models.Content
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &rows, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("failed to load contents: %w", err)
	}
	for _, c := range rows {
		result[c.ID] = c
	}
	return result, nil
}

func (r *postgresContentRepository) InsertIfAbsent(ctx context.Context, content *models.Content) (*models.Content, error) {
	query := `
		INSERT INTO contents (id, url, type, title, description, teaser_image_url, og)
		VALUES (:id, :url, :type, :title, :description, :teaser_image_url, :og)
		ON CONFLICT (url) DO NOTHING
	`

	if _, err := sqlx.NamedExecContext(ctx, r.client.Executor(ctx), query, content); err != nil {
		return nil, fmt.Errorf("failed to insert content: %w", err)
	}

	// Re-select so a concurrent winner's row is returned to both callers
	return r.FindByURL(ctx, content.URL)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
