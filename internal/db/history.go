package db

import (
	"context"
	"fmt"
)

const createSearchHistoryTable = `
	CREATE TABLE IF NOT EXISTS search_history (
		id SERIAL PRIMARY KEY,
		query VARCHAR(255) NOT NULL,
		response TEXT NOT NULL,
		citations TEXT[],
		timestamp TIMESTAMPTZ DEFAULT NOW()
	)`

// EnsureSchema creates the search_history table if it does not exist.
// Callers treat a failure here as non-fatal: the service can answer
// queries without history logging.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, createSearchHistoryTable); err != nil {
		return fmt.Errorf("failed to create search_history table: %w", err)
	}
	return nil
}

// SaveSearchHistory inserts one history record.
func (c *Client) SaveSearchHistory(ctx context.Context, rec *SearchHistory) error {
	query := `
		INSERT INTO search_history (query, response, citations)
		VALUES ($1, $2, $3)
		RETURNING id, timestamp`

	row := c.db.QueryRowContext(ctx, query, rec.Query, rec.Response, rec.Citations)
	if err := row.Scan(&rec.ID, &rec.Timestamp); err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}
	return nil
}

// ListSearchHistory returns the most recent records, newest first.
func (c *Client) ListSearchHistory(ctx context.Context, limit int) ([]SearchHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, query, response, citations, timestamp
		FROM search_history
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`

	records := []SearchHistory{}
	if err := c.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}
	return records, nil
}
