// Package credentials persists the attribute/value rows the RADIUS server
// checks at authentication time.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

// Repository stores credential rows keyed by username.
type Repository interface {
	// Insert appends a credential row.
	Insert(ctx context.Context, c *models.Credential) error

	// UpsertSecret sets the secret of username, updating the existing row in
	// place or inserting one, so that exactly one secret row remains.
	UpsertSecret(ctx context.Context, username, secret string) error

	// DeleteByUsername removes every credential row of username and returns
	// the number of rows removed.
	DeleteByUsername(ctx context.Context, username string) (int64, error)

	ListByUsername(ctx context.Context, username string) ([]*models.Credential, error)
}
