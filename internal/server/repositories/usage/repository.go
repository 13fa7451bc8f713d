// Package usage reads the session log and the daily rollup written by the
// RADIUS accounting subsystem. Nothing here writes to those tables.
package usage

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

// Repository exposes the aggregate queries the analytics services need.
type Repository interface {
	// LastSessions returns every account whose most recent session started
	// before the cutoff, plus every account that never had a session.
	LastSessions(ctx context.Context, before time.Time) ([]*models.LastSession, error)

	// CountActivity returns the number of accounts and, from the same
	// snapshot, how many of them started a session at or after since.
	CountActivity(ctx context.Context, since time.Time) (total, active int64, err error)

	// DailyTotals sums the daily rollup per date for dates >= since.
	DailyTotals(ctx context.Context, since time.Time) ([]*models.DailyBytes, error)

	// ConsumerTotals ranks usernames by all-time rollup bytes.
	ConsumerTotals(ctx context.Context, limit int) ([]*models.ConsumerBytes, error)

	// LoginCounts counts distinct usernames per session start date.
	LoginCounts(ctx context.Context, since time.Time) ([]*models.LoginTrendPoint, error)

	OpenSessions(ctx context.Context) ([]*models.Session, error)

	// SessionTotals sums bytes over all sessions of username.
	SessionTotals(ctx context.Context, username string) (bytesIn, bytesOut int64, err error)

	// LatestSession returns the session of username with the greatest start
	// time, or common.ErrNotFound.
	LatestSession(ctx context.Context, username string) (*models.Session, error)
}
