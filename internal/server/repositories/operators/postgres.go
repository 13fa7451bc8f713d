package operators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, op *models.Operator) (*models.Operator, error) {
	query := `
		INSERT INTO operators (username, password_hash, fullname, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, op.Username, op.PasswordHash, op.Fullname, op.Role, op.Status).
		Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicateUsername, op.Username)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return op, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Operator, error) {
	query := `
		SELECT id, username, password_hash, fullname, role, status, created_at
		FROM operators
		WHERE id = $1
	`
	op, err := scanOperator(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return op, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	query := `
		SELECT id, username, password_hash, fullname, role, status, created_at
		FROM operators
		WHERE username = $1
	`
	op, err := scanOperator(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return op, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Operator, error) {
	query := `
		SELECT id, username, password_hash, fullname, role, status, created_at
		FROM operators
		ORDER BY username
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Operator
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperator(s scanner) (*models.Operator, error) {
	var op models.Operator
	if err := s.Scan(&op.ID, &op.Username, &op.PasswordHash, &op.Fullname, &op.Role, &op.Status, &op.CreatedAt); err != nil {
		return nil, err
	}
	return &op, nil
}
