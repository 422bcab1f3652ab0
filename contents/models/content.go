// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	uuid "github.com/gofrs/uuid"
)

// TypeWeb is the only content type produced by URL submissions
const TypeWeb = "web"

// Content is the canonical record of a submitted URL. It is created once per
// distinct trimmed URL and never updated.
type Content struct {
	ID             uuid.UUID `json:"id" db:"id"`
	URL            string    `json:"url" db:"url"`
	Type           string    `json:"type" db:"type"`
	Title          string    `json:"title" db:"title"`
	Description    *string   `json:"description,omitempty" db:"description"`
	TeaserImageURL *string   `json:"teaserImageUrl,omitempty" db:"teaser_image_url"`
	OG             JSONB     `json:"og,omitempty" db:"og"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// JSONB is a custom type for PostgreSQL JSONB that implements sql.Scanner and driver.Valuer
type JSONB map[string]interface{}

// Value implements driver.Valuer interface. Nil is stored as an empty object.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, j)
}
