package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	insertQ = `(?s)INSERT\s+INTO\s+credentials\s*\(username,\s*attribute,\s*operator,\s*value\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id`
	updateQ = `(?s)UPDATE\s+credentials\s+SET\s+value\s*=\s*\$3\s+WHERE\s+username\s*=\s*\$1\s+AND\s+attribute\s*=\s*\$2`
	dedupeQ = `(?s)DELETE\s+FROM\s+credentials\s+WHERE\s+username\s*=\s*\$1\s+AND\s+attribute\s*=\s*\$2\s+AND\s+id\s*<>`
)

func TestInsert_DefaultsOperator(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "concurrency-limit", ":=", "1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	c := &models.Credential{Username: "alice", Attribute: models.AttributeConcurrencyLimit, Value: "1"}
	require.NoError(t, repo.Insert(context.Background(), c))
	assert.Equal(t, int64(11), c.ID)
	assert.Equal(t, ":=", c.Operator)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), &models.Credential{Username: "a", Attribute: "secret", Value: "x"})
	require.ErrorContains(t, err, "db error: db down")
}

func TestUpsertSecret_UpdatesInPlace(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("alice", "secret", "p2").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertSecret(context.Background(), "alice", "p2"))
	require.NoError(t, mock.ExpectationsWereMet(), "no insert must follow a successful update")
}

func TestUpsertSecret_InsertsWhenMissing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("alice", "secret", "p2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "secret", ":=", "p2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	require.NoError(t, repo.UpsertSecret(context.Background(), "alice", "p2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSecret_CollapsesLegacyDuplicates(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs("alice", "secret", "p2").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(dedupeQ).WithArgs("alice", "secret").WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.UpsertSecret(context.Background(), "alice", "p2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSecret_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WillReturnError(errors.New("tx aborted"))
	require.ErrorContains(t, repo.UpsertSecret(context.Background(), "alice", "p"), "db error: tx aborted")

	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))
	require.ErrorContains(t, repo.UpsertSecret(context.Background(), "alice", "p"), "rows affected error")
}

func TestDeleteByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `DELETE\s+FROM\s+credentials\s+WHERE\s+username\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q).WithArgs("bob").WillReturnError(errors.New("boom"))

	n, err := repo.DeleteByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.DeleteByUsername(context.Background(), "bob")
	require.ErrorContains(t, err, "db error: boom")
}

func TestListByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*username,\s*attribute,\s*operator,\s*value\s+FROM\s+credentials\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "attribute", "operator", "value"}).
			AddRow(int64(1), "alice", "secret", ":=", "p1").
			AddRow(int64(2), "alice", "concurrency-limit", ":=", "1"))

	got, err := repo.ListByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.AttributeSecret, got[0].Attribute)
	assert.Equal(t, "1", got[1].Value)
}
