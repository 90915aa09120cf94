package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tmods/internal/domain"
)

// StoredToken is a catalog API key saved by 'tmods auth login'
type StoredToken struct {
	Provider  domain.Provider
	APIKey    string
	UpdatedAt time.Time
}

// SaveToken stores the API key for a catalog, replacing any previous key.
// Surrounding whitespace from pasted keys is dropped.
func (d *DB) SaveToken(p domain.Provider, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: empty api key for %s", domain.ErrInvalidConfig, p)
	}

	_, err := d.Exec(`
        INSERT INTO auth_tokens (source_id, token_data, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(source_id) DO UPDATE SET
            token_data = excluded.token_data,
            updated_at = CURRENT_TIMESTAMP
    `, string(p), apiKey)
	if err != nil {
		return fmt.Errorf("saving %s token: %w", p, err)
	}
	return nil
}

// GetToken returns the stored key for a catalog, or nil when none is stored
func (d *DB) GetToken(p domain.Provider) (*StoredToken, error) {
	var (
		token    StoredToken
		provider string
	)
	err := d.QueryRow(`
        SELECT source_id, token_data, updated_at
        FROM auth_tokens
        WHERE source_id = ?
    `, string(p)).Scan(&provider, &token.APIKey, &token.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s token: %w", p, err)
	}

	token.Provider = domain.Provider(provider)
	return &token, nil
}

// DeleteToken removes the stored key for a catalog. Removing a key that was
// never stored is not an error.
func (d *DB) DeleteToken(p domain.Provider) error {
	if _, err := d.Exec("DELETE FROM auth_tokens WHERE source_id = ?", string(p)); err != nil {
		return fmt.Errorf("deleting %s token: %w", p, err)
	}
	return nil
}
