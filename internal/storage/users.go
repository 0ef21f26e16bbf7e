package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

// GetOrCreateUser resolves a tailnet login to a local user id, creating the
// row on first sight. The display name is refreshed on every call so renames
// on the tailnet propagate; an empty display name never clobbers a stored one.
// Migration 0001 seeds the "local" user (id 1) that DevIdentity and the CLIs
// rely on, so this path only runs for WhoIs-resolved identities.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	if login == "" {
		return 0, fmt.Errorf("resolving user: empty login: %w", models.ErrUnauthorized)
	}

	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (login, display_name)
		 VALUES ($1, $2)
		 ON CONFLICT (login) DO UPDATE
		     SET last_seen = NOW(),
		         display_name = COALESCE(NULLIF($2, ''), users.display_name)
		 RETURNING id`,
		login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %q: %w", login, err)
	}
	return id, nil
}
