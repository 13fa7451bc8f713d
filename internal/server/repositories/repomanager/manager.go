package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/operators"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/plans"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/usage"
)

// RepositoryManager vends repositories bound to a pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Plans(db dbx.DBTX) plans.Repository
	Usage(db dbx.DBTX) usage.Repository
	Operators(db dbx.DBTX) operators.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
