package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

// Repository stores single-use operator refresh tokens.
type Repository interface {
	Create(ctx context.Context, operatorID int64, token string, expires time.Time) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}
