package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hotspotkeeper/internal/timex"
)

// ActiveWindowDays is the fixed look-back of SummarizeActivity.
const ActiveWindowDays = 90

// ActivityService classifies accounts as active or inactive from their
// session history. It only reads and runs without transactions.
type ActivityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       quartz.Clock
}

func NewActivityService(db *sql.DB, m repomanager.RepositoryManager, clock quartz.Clock) *ActivityService {
	return &ActivityService{db: db, repomanager: m, clock: clock}
}

// ClassifyActivity lists the accounts inactive for more than thresholdDays
// whole days, plus the accounts that never connected. Never-seen accounts
// come first, then the rest by days inactive descending.
func (s *ActivityService) ClassifyActivity(ctx context.Context, thresholdDays int) ([]models.InactiveAccount, error) {
	if thresholdDays < 0 {
		return nil, common.Validationf("threshold must not be negative, got %d", thresholdDays)
	}

	now := s.clock.Now()
	loc := now.Location()
	// days > threshold holds exactly for sessions started before this instant.
	cutoff := timex.StartOfDay(now).AddDate(0, 0, -thresholdDays)

	rows, err := s.repomanager.Usage(s.db).LastSessions(ctx, cutoff)
	if err != nil {
		return nil, common.NewStoreError("classify activity", err)
	}

	result := make([]models.InactiveAccount, 0, len(rows))
	for _, r := range rows {
		ia := models.InactiveAccount{
			Username:  r.Username,
			Firstname: r.Firstname,
			Lastname:  r.Lastname,
			Company:   r.Company,
		}
		if r.LastSessionTime != nil {
			days := timex.DaysBetween(*r.LastSessionTime, now, loc)
			if days <= thresholdDays {
				continue
			}
			last := *r.LastSessionTime
			ia.LastSessionTime = &last
			ia.DaysInactive = &days
		}
		result = append(result, ia)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].DaysInactive, result[j].DaysInactive
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a > *b
		}
		return result[i].Username < result[j].Username
	})
	return result, nil
}

// SummarizeActivity counts the accounts with a session started in the last
// ActiveWindowDays days. Both counts come from one statement, so
// ActiveCount+InactiveCount always equals TotalAccounts.
func (s *ActivityService) SummarizeActivity(ctx context.Context) (*models.ActivitySummary, error) {
	since := s.clock.Now().AddDate(0, 0, -ActiveWindowDays)

	total, active, err := s.repomanager.Usage(s.db).CountActivity(ctx, since)
	if err != nil {
		return nil, common.NewStoreError("summarize activity", err)
	}

	summary := &models.ActivitySummary{
		TotalAccounts:    total,
		ActiveCount:      active,
		InactiveCount:    total - active,
		ActivePercentage: "0.00",
	}
	if total > 0 {
		summary.ActivePercentage = fmt.Sprintf("%.2f", float64(active)/float64(total)*100)
	}
	return summary, nil
}
