package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
)

// SessionService exposes the sessions that are still open and the usage of
// a single account. Results are accurate as of the read and never cached.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       quartz.Clock
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, clock quartz.Clock) *SessionService {
	return &SessionService{db: db, repomanager: m, clock: clock}
}

// OpenSessions lists every session without a stop time, newest first.
// Duplicate open rows for one username are all listed.
func (s *SessionService) OpenSessions(ctx context.Context) ([]models.OpenSession, error) {
	rows, err := s.repomanager.Usage(s.db).OpenSessions(ctx)
	if err != nil {
		return nil, common.NewStoreError("open sessions", err)
	}

	now := s.clock.Now()
	result := make([]models.OpenSession, 0, len(rows))
	for _, r := range rows {
		elapsed := now.Sub(r.StartTime)
		if elapsed < 0 {
			elapsed = 0
		}
		result = append(result, models.OpenSession{
			Username:  r.Username,
			ClientIP:  r.ClientIP,
			ClientMAC: r.ClientMAC,
			NASIP:     r.NASIP,
			StartTime: r.StartTime,
			Elapsed:   elapsed,
			BytesIn:   r.BytesIn,
			BytesOut:  r.BytesOut,
		})
	}
	return result, nil
}

// AccountUsageDetail returns the identity of username with its all-time
// totals and latest session. It returns nil, nil when the account does not
// exist; an account without sessions has zero totals and nil Last* fields.
func (s *SessionService) AccountUsageDetail(ctx context.Context, username string) (*models.AccountUsageDetail, error) {
	if username == "" {
		return nil, common.Validationf("username is required")
	}

	profile, err := s.repomanager.Accounts(s.db).GetProfile(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, common.NewStoreError("account usage detail", err)
	}

	usage := s.repomanager.Usage(s.db)
	in, out, err := usage.SessionTotals(ctx, username)
	if err != nil {
		return nil, common.NewStoreError("account usage detail", err)
	}

	detail := &models.AccountUsageDetail{
		Username:      profile.Username,
		Firstname:     profile.Firstname,
		Lastname:      profile.Lastname,
		Company:       profile.Company,
		PlanName:      profile.PlanName,
		CreatedAt:     profile.CreatedAt,
		TotalUpload:   in,
		TotalDownload: out,
	}

	last, err := usage.LatestSession(ctx, username)
	switch {
	case errors.Is(err, common.ErrNotFound):
		return detail, nil
	case err != nil:
		return nil, common.NewStoreError("account usage detail", err)
	}
	detail.LastSessionAt = &last.StartTime
	detail.LastClientIP = &last.ClientIP
	detail.LastClientMAC = &last.ClientMAC
	return detail, nil
}
