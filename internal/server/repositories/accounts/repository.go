// Package accounts declares and implements persistence of identity rows.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

// Repository stores identity rows keyed by username.
type Repository interface {
	// Create inserts the identity row and fills CreatedAt. A duplicate
	// username surfaces as the driver's unique violation.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// Get returns the identity row or common.ErrNotFound.
	Get(ctx context.Context, username string) (*models.Account, error)

	// GetProfile returns the identity row joined with its plan name.
	GetProfile(ctx context.Context, username string) (*models.AccountProfile, error)

	// LockForUpdate takes a row lock on the identity row for the rest of the
	// surrounding transaction. Returns common.ErrNotFound if the row is missing.
	LockForUpdate(ctx context.Context, username string) error

	// Update writes only the fields present in patch. Password is ignored.
	Update(ctx context.Context, username string, patch models.AccountPatch) error

	// Delete removes the identity row or returns common.ErrNotFound.
	Delete(ctx context.Context, username string) error

	List(ctx context.Context) ([]*models.Account, error)
}
