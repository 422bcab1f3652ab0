package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
)

// Category groups submissions. Titles are unique.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CreateCategoryRequest is the body of POST /categories
type CreateCategoryRequest struct {
	Title string `json:"title"`
}
