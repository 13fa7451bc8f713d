package services

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hotspotkeeper/internal/timex"
)

const bytesPerGB = 1 << 30

// BytesToGB converts bytes to gigabytes (2^30) rounded to two decimals.
func BytesToGB(b int64) float64 {
	return math.Round(float64(b)/bytesPerGB*100) / 100
}

// UsageService aggregates the daily rollup and the session log.
type UsageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       quartz.Clock
}

func NewUsageService(db *sql.DB, m repomanager.RepositoryManager, clock quartz.Clock) *UsageService {
	return &UsageService{db: db, repomanager: m, clock: clock}
}

// windowStart is midnight windowDays days before today.
func (s *UsageService) windowStart(windowDays int) (time.Time, error) {
	if windowDays <= 0 {
		return time.Time{}, common.Validationf("window must be positive, got %d", windowDays)
	}
	return timex.StartOfDay(s.clock.Now()).AddDate(0, 0, -windowDays), nil
}

// DailyUsageSeries returns one point per date present in the rollup within
// the window. Dates without rows are absent, not zero-filled.
func (s *UsageService) DailyUsageSeries(ctx context.Context, windowDays int) ([]models.DailyUsagePoint, error) {
	since, err := s.windowStart(windowDays)
	if err != nil {
		return nil, err
	}

	rows, err := s.repomanager.Usage(s.db).DailyTotals(ctx, since)
	if err != nil {
		return nil, common.NewStoreError("daily usage series", err)
	}

	result := make([]models.DailyUsagePoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.DailyUsagePoint{
			Date:       r.Date,
			DownloadGB: BytesToGB(r.BytesOut),
			UploadGB:   BytesToGB(r.BytesIn),
		})
	}
	return result, nil
}

// TopConsumers ranks usernames by all-time usage. Usernames without an
// identity row are included with blank names. TotalGB is rounded from the
// byte total, so it follows the ranking order.
func (s *UsageService) TopConsumers(ctx context.Context, limit int) ([]models.TopConsumer, error) {
	if limit <= 0 {
		return nil, common.Validationf("limit must be positive, got %d", limit)
	}

	rows, err := s.repomanager.Usage(s.db).ConsumerTotals(ctx, limit)
	if err != nil {
		return nil, common.NewStoreError("top consumers", err)
	}

	result := make([]models.TopConsumer, 0, len(rows))
	for _, r := range rows {
		result = append(result, models.TopConsumer{
			Username:   r.Username,
			Firstname:  r.Firstname,
			Lastname:   r.Lastname,
			Company:    r.Company,
			DownloadGB: BytesToGB(r.BytesOut),
			UploadGB:   BytesToGB(r.BytesIn),
			TotalGB:    BytesToGB(r.TotalBytes),
		})
	}
	return result, nil
}

// LoginTrend counts distinct usernames per day over the window, oldest first.
func (s *UsageService) LoginTrend(ctx context.Context, windowDays int) ([]models.LoginTrendPoint, error) {
	since, err := s.windowStart(windowDays)
	if err != nil {
		return nil, err
	}

	rows, err := s.repomanager.Usage(s.db).LoginCounts(ctx, since)
	if err != nil {
		return nil, common.NewStoreError("login trend", err)
	}

	result := make([]models.LoginTrendPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, *r)
	}
	return result, nil
}
