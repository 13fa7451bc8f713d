package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LastSessions(ctx context.Context, before time.Time) ([]*models.LastSession, error) {
	query := `
		SELECT a.username, a.firstname, a.lastname, a.company, a.plan_id, a.created_at,
		       MAX(s.start_time) AS last_session
		FROM accounts a
		LEFT JOIN sessions s ON s.username = a.username
		GROUP BY a.username, a.firstname, a.lastname, a.company, a.plan_id, a.created_at
		HAVING MAX(s.start_time) IS NULL OR MAX(s.start_time) < $1
	`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LastSession
	for rows.Next() {
		var (
			ls     models.LastSession
			planID sql.NullInt64
			last   sql.NullTime
		)
		if err := rows.Scan(&ls.Username, &ls.Firstname, &ls.Lastname, &ls.Company,
			&planID, &ls.CreatedAt, &last); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if planID.Valid {
			ls.PlanID = &planID.Int64
		}
		if last.Valid {
			ls.LastSessionTime = &last.Time
		}
		result = append(result, &ls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// CountActivity only counts sessions of existing accounts so that active
// never exceeds total.
func (r *PostgresRepository) CountActivity(ctx context.Context, since time.Time) (int64, int64, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM accounts),
			(SELECT COUNT(DISTINCT s.username)
			 FROM sessions s
			 JOIN accounts a ON a.username = s.username
			 WHERE s.start_time >= $1)
	`
	var total, active int64
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return total, active, nil
}

func (r *PostgresRepository) DailyTotals(ctx context.Context, since time.Time) ([]*models.DailyBytes, error) {
	query := `
		SELECT date,
		       COALESCE(SUM(bytes_in), 0)::bigint,
		       COALESCE(SUM(bytes_out), 0)::bigint
		FROM daily_usage
		WHERE date >= $1
		GROUP BY date
		ORDER BY date
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.DailyBytes
	for rows.Next() {
		var d models.DailyBytes
		if err := rows.Scan(&d.Date, &d.BytesIn, &d.BytesOut); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ConsumerTotals(ctx context.Context, limit int) ([]*models.ConsumerBytes, error) {
	query := `
		SELECT d.username,
		       COALESCE(a.firstname, ''), COALESCE(a.lastname, ''), COALESCE(a.company, ''),
		       COALESCE(SUM(d.bytes_in), 0)::bigint AS bytes_in,
		       COALESCE(SUM(d.bytes_out), 0)::bigint AS bytes_out,
		       COALESCE(SUM(d.bytes_in + d.bytes_out), 0)::bigint AS total
		FROM daily_usage d
		LEFT JOIN accounts a ON a.username = d.username
		GROUP BY d.username, a.firstname, a.lastname, a.company
		ORDER BY total DESC, d.username
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ConsumerBytes
	for rows.Next() {
		var c models.ConsumerBytes
		if err := rows.Scan(&c.Username, &c.Firstname, &c.Lastname, &c.Company,
			&c.BytesIn, &c.BytesOut, &c.TotalBytes); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) LoginCounts(ctx context.Context, since time.Time) ([]*models.LoginTrendPoint, error) {
	query := `
		SELECT start_time::date AS day, COUNT(DISTINCT username)
		FROM sessions
		WHERE start_time >= $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.LoginTrendPoint
	for rows.Next() {
		var p models.LoginTrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) OpenSessions(ctx context.Context) ([]*models.Session, error) {
	query := `
		SELECT id, username, start_time, stop_time, bytes_in, bytes_out, client_ip, client_mac, nas_ip
		FROM sessions
		WHERE stop_time IS NULL
		ORDER BY start_time DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SessionTotals(ctx context.Context, username string) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(bytes_in), 0)::bigint, COALESCE(SUM(bytes_out), 0)::bigint
		FROM sessions
		WHERE username = $1
	`
	var in, out int64
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&in, &out); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return in, out, nil
}

func (r *PostgresRepository) LatestSession(ctx context.Context, username string) (*models.Session, error) {
	query := `
		SELECT id, username, start_time, stop_time, bytes_in, bytes_out, client_ip, client_mac, nas_ip
		FROM sessions
		WHERE username = $1
		ORDER BY start_time DESC
		LIMIT 1
	`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*models.Session, error) {
	var (
		s    models.Session
		stop sql.NullTime
	)
	if err := sc.Scan(&s.ID, &s.Username, &s.StartTime, &stop, &s.BytesIn, &s.BytesOut,
		&s.ClientIP, &s.ClientMAC, &s.NASIP); err != nil {
		return nil, err
	}
	if stop.Valid {
		s.StopTime = &stop.Time
	}
	return &s, nil
}
