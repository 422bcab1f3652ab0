// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package postgres

import (
	"context"
	"fmt"
)

// Constraint names referenced by repositories
const (
	ConstraintUsersEmail          = "users_email_key"
	ConstraintUsersUsername       = "users_username_key"
	ConstraintCategoriesTitle     = "categories_title_key"
	ConstraintContentsURL         = "contents_url_key"
	ConstraintSubmissionsCategory = "submissions_category_id_fkey"
	ConstraintSubmissionsContent  = "submissions_content_id_fkey"
	ConstraintBallotsSubmission   = "ballots_submission_id_fkey"
)

// Migrate creates all tables. Safe to call multiple times.
func (c *Client) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Schema is the full DDL
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email TEXT NOT NULL,
    username TEXT NOT NULL,
    hash TEXT NOT NULL,
    tokens BIGINT NOT NULL DEFAULT 1,
    stage TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_email_key UNIQUE (email),
    CONSTRAINT users_username_key UNIQUE (username)
);

CREATE TABLE IF NOT EXISTS categories (
    id UUID PRIMARY KEY,
    title TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT categories_title_key UNIQUE (title)
);

CREATE TABLE IF NOT EXISTS contents (
    id UUID PRIMARY KEY,
    url TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'web',
    title TEXT NOT NULL,
    description TEXT,
    teaser_image_url TEXT,
    og JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT contents_url_key UNIQUE (url)
);

CREATE TABLE IF NOT EXISTS submissions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    category_id UUID NOT NULL,
    content_id UUID NOT NULL,
    comment TEXT NOT NULL DEFAULT '',
    stage TEXT NOT NULL DEFAULT 'egg'
        CHECK (stage IN ('egg', 'caterpillar', 'chrysalis', 'butterfly')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT submissions_category_id_fkey FOREIGN KEY (category_id) REFERENCES categories(id),
    CONSTRAINT submissions_content_id_fkey FOREIGN KEY (content_id) REFERENCES contents(id)
);

CREATE INDEX IF NOT EXISTS idx_submissions_stage ON submissions(stage);
CREATE INDEX IF NOT EXISTS idx_submissions_category_id ON submissions(category_id);
CREATE INDEX IF NOT EXISTS idx_submissions_user_id ON submissions(user_id);

CREATE TABLE IF NOT EXISTS ballots (
    user_id UUID NOT NULL REFERENCES users(id),
    submission_id UUID NOT NULL,
    vote TEXT NOT NULL DEFAULT 'yes' CHECK (vote IN ('yes')),
    stage TEXT NOT NULL DEFAULT 'egg',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, submission_id),
    CONSTRAINT ballots_submission_id_fkey FOREIGN KEY (submission_id) REFERENCES submissions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_ballots_submission_vote ON ballots(submission_id, vote);
`
