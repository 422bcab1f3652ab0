// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/contents/models"
)

// ErrContentNotFound is returned when no content matches
var ErrContentNotFound = errors.New("content not found")

// ContentRepository defines the data access interface for contents
type ContentRepository interface {
	FindByURL(ctx context.Context, url string) (*models.Content, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Content, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Content, error)

	// InsertIfAbsent stores content unless a row with the same URL exists, and
	// returns whichever row is stored for that URL afterwards.
	InsertIfAbsent(ctx context.Context, content *models.Content) (*models.Content, error)
}
