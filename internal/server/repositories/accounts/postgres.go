package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, firstname, lastname, company, plan_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Username, account.Firstname, account.Lastname, account.Company, nullableInt64(account.PlanID),
	).Scan(&account.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) Get(ctx context.Context, username string) (*models.Account, error) {
	query := `
		SELECT username, firstname, lastname, company, plan_id, created_at
		FROM accounts
		WHERE username = $1
	`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetProfile(ctx context.Context, username string) (*models.AccountProfile, error) {
	query := `
		SELECT a.username, a.firstname, a.lastname, a.company, a.plan_id, a.created_at, p.name
		FROM accounts a
		LEFT JOIN plans p ON p.plan_id = a.plan_id
		WHERE a.username = $1
	`
	var (
		profile  models.AccountProfile
		planID   sql.NullInt64
		planName sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&profile.Username, &profile.Firstname, &profile.Lastname, &profile.Company,
		&planID, &profile.CreatedAt, &planName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	profile.PlanID = int64Ptr(planID)
	if planName.Valid {
		profile.PlanName = &planName.String
	}
	return &profile, nil
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, username string) error {
	query := `SELECT username FROM accounts WHERE username = $1 FOR UPDATE`

	var locked string
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// assignment is one "column = $n" pair of an UPDATE. Columns come from the
// fixed list in patchAssignments, never from input.
type assignment struct {
	column string
	value  any
}

func patchAssignments(patch models.AccountPatch) []assignment {
	var set []assignment
	if patch.Firstname != nil {
		set = append(set, assignment{"firstname", *patch.Firstname})
	}
	if patch.Lastname != nil {
		set = append(set, assignment{"lastname", *patch.Lastname})
	}
	if patch.Company != nil {
		set = append(set, assignment{"company", *patch.Company})
	}
	switch {
	case patch.ClearPlan:
		set = append(set, assignment{"plan_id", nil})
	case patch.PlanID != nil:
		set = append(set, assignment{"plan_id", *patch.PlanID})
	}
	return set
}

// buildUpdate renders the UPDATE statement and its positional arguments.
// It returns an empty query when nothing is to be written.
func buildUpdate(username string, patch models.AccountPatch) (string, []any) {
	set := patchAssignments(patch)
	if len(set) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+1)
	for i, a := range set {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", a.column, i+1))
		args = append(args, a.value)
	}
	args = append(args, username)

	query := fmt.Sprintf("UPDATE accounts SET %s WHERE username = $%d", strings.Join(clauses, ", "), len(args))
	return query, args
}

func (r *PostgresRepository) Update(ctx context.Context, username string, patch models.AccountPatch) error {
	query, args := buildUpdate(username, patch)
	if query == "" {
		return nil
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM accounts WHERE username = $1`

	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT username, firstname, lastname, company, plan_id, created_at
		FROM accounts
		ORDER BY username
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		account models.Account
		planID  sql.NullInt64
	)
	if err := row.Scan(&account.Username, &account.Firstname, &account.Lastname, &account.Company, &planID, &account.CreatedAt); err != nil {
		return nil, err
	}
	account.PlanID = int64Ptr(planID)
	return &account, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
