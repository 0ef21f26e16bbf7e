package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/meltforce/liftlog/internal/models"
)

// TestGetOrCreateUserEmptyLogin verifies that an empty login is rejected as
// unauthorized before any database access. WhoIs can hand back a profile with
// no login name; that must never turn into a user row.
func TestGetOrCreateUserEmptyLogin(t *testing.T) {
	db := &DB{} // no pool: the guard must fire before any query

	id, err := db.GetOrCreateUser(context.Background(), "", "Nameless")
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if id != 0 {
		t.Errorf("id = %d, want 0", id)
	}
}
