// Package operators persists the logins of the management interface.
package operators

import (
	"context"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts op and fills in its ID and CreatedAt. A taken username
	// yields common.ErrDuplicateUsername.
	Create(ctx context.Context, op *models.Operator) (*models.Operator, error)
	Get(ctx context.Context, id int64) (*models.Operator, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
	List(ctx context.Context) ([]*models.Operator, error)
}
