package credentials

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.Credential) error {
	query := `
		INSERT INTO credentials (username, attribute, operator, value)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	op := c.Operator
	if op == "" {
		op = models.CredentialOperator
	}
	if err := r.db.QueryRowContext(ctx, query, c.Username, c.Attribute, op, c.Value).Scan(&c.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	c.Operator = op
	return nil
}

// UpsertSecret must run inside a transaction that already serializes writers
// of the same username (see accounts.Repository.LockForUpdate): the table has
// no unique key on (username, attribute) because the RADIUS schema does not
// define one.
func (r *PostgresRepository) UpsertSecret(ctx context.Context, username, secret string) error {
	update := `
		UPDATE credentials SET value = $3
		WHERE username = $1 AND attribute = $2
	`
	res, err := r.db.ExecContext(ctx, update, username, models.AttributeSecret, secret)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch {
	case n == 0:
		return r.Insert(ctx, &models.Credential{
			Username:  username,
			Attribute: models.AttributeSecret,
			Value:     secret,
		})
	case n > 1:
		// Rows written by other tools before this one owned the table.
		dedupe := `
			DELETE FROM credentials
			WHERE username = $1 AND attribute = $2
			  AND id <> (SELECT MIN(id) FROM credentials WHERE username = $1 AND attribute = $2)
		`
		if _, err := r.db.ExecContext(ctx, dedupe, username, models.AttributeSecret); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	query := `DELETE FROM credentials WHERE username = $1`

	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListByUsername(ctx context.Context, username string) ([]*models.Credential, error) {
	query := `
		SELECT id, username, attribute, operator, value
		FROM credentials
		WHERE username = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Credential
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(&c.ID, &c.Username, &c.Attribute, &c.Operator, &c.Value); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
