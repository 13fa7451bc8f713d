// Package plans reads the service plans an account can be attached to.
package plans

import (
	"context"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Plan, error)
	Get(ctx context.Context, id int64) (*models.Plan, error)
}
