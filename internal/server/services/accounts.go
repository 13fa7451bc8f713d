// Package services contains the server-side business logic: the account
// lifecycle, the usage analytics and the operator authentication. Services
// own the connection pool and open transactions through dbx.WithTx.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
)

// AccountService creates, updates and deletes accounts. Each mutation spans
// the identity row and the credential rows in a single transaction.
type AccountService struct {
	db                      *sql.DB
	repomanager             repomanager.RepositoryManager
	defaultConcurrencyLimit string
	log                     logging.Logger
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *AccountService {
	limit := cfg.DefaultConcurrencyLimit
	if limit == "" {
		limit = "1"
	}
	return &AccountService{
		db:                      db,
		repomanager:             m,
		defaultConcurrencyLimit: limit,
		log:                     log,
	}
}

// CreateAccount inserts the identity row, its secret and its default
// concurrency limit. A taken username yields common.ErrDuplicateUsername,
// detected from the unique violation rather than a lookup.
func (s *AccountService) CreateAccount(ctx context.Context, in models.NewAccount) (*models.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, common.Validationf("username is required")
	}
	if in.Password == "" {
		return nil, common.Validationf("password is required")
	}

	account := &models.Account{
		Username:  in.Username,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Company:   in.Company,
		PlanID:    in.PlanID,
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).Create(ctx, account); err != nil {
			switch {
			case dbx.IsUniqueViolation(err):
				return fmt.Errorf("%w: %s", common.ErrDuplicateUsername, in.Username)
			case dbx.IsForeignKeyViolation(err):
				return unknownPlan(in.PlanID)
			}
			return err
		}

		creds := s.repomanager.Credentials(tx)
		if err := creds.Insert(ctx, &models.Credential{
			Username:  in.Username,
			Attribute: models.AttributeSecret,
			Value:     in.Password,
		}); err != nil {
			return err
		}
		return creds.Insert(ctx, &models.Credential{
			Username:  in.Username,
			Attribute: models.AttributeConcurrencyLimit,
			Value:     s.defaultConcurrencyLimit,
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "create account", in.Username, err)
	}

	s.log.Info(ctx, "account created", "username", account.Username)
	return account, nil
}

// UpdateAccount writes the fields present in patch and, when a password is
// given, replaces the account secret. The identity row stays locked for the
// whole transaction so concurrent password changes are serialized.
func (s *AccountService) UpdateAccount(ctx context.Context, username string, patch models.AccountPatch) (*models.Account, error) {
	if username == "" {
		return nil, common.Validationf("username is required")
	}
	if patch.Password != nil && *patch.Password == "" {
		return nil, common.Validationf("password must not be empty")
	}
	if patch.ClearPlan && patch.PlanID != nil {
		return nil, common.Validationf("plan id and clear plan are mutually exclusive")
	}

	var account *models.Account
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)

		if err := accounts.LockForUpdate(ctx, username); err != nil {
			return err
		}
		if err := accounts.Update(ctx, username, patch); err != nil {
			if dbx.IsForeignKeyViolation(err) {
				return unknownPlan(patch.PlanID)
			}
			return err
		}
		if patch.Password != nil {
			if err := s.repomanager.Credentials(tx).UpsertSecret(ctx, username, *patch.Password); err != nil {
				return err
			}
		}

		var err error
		account, err = accounts.Get(ctx, username)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update account", username, err)
	}

	s.log.Info(ctx, "account updated", "username", username, "password_changed", patch.Password != nil)
	return account, nil
}

// DeleteAccount removes the identity row and every credential row of
// username. Sessions and daily usage are kept.
func (s *AccountService) DeleteAccount(ctx context.Context, username string) error {
	if username == "" {
		return common.Validationf("username is required")
	}

	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		removed, err = s.repomanager.Credentials(tx).DeleteByUsername(ctx, username)
		if err != nil {
			return err
		}
		return s.repomanager.Accounts(tx).Delete(ctx, username)
	})
	if err != nil {
		return s.fail(ctx, "delete account", username, err)
	}

	s.log.Info(ctx, "account deleted", "username", username, "credentials_removed", removed)
	return nil
}

// GetAccount returns the identity row of username with its plan name.
func (s *AccountService) GetAccount(ctx context.Context, username string) (*models.AccountProfile, error) {
	p, err := s.repomanager.Accounts(s.db).GetProfile(ctx, username)
	if err != nil {
		return nil, common.NewStoreError("get account", err)
	}
	return p, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	list, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, common.NewStoreError("list accounts", err)
	}
	return list, nil
}

func (s *AccountService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	list, err := s.repomanager.Plans(s.db).List(ctx)
	if err != nil {
		return nil, common.NewStoreError("list plans", err)
	}
	return list, nil
}

func unknownPlan(id *int64) error {
	if id == nil {
		return common.Validationf("unknown plan")
	}
	return common.Validationf("plan %d does not exist", *id)
}

// fail classifies err and logs store failures. Typed errors pass through.
func (s *AccountService) fail(ctx context.Context, op, username string, err error) error {
	err = common.NewStoreError(op, err)
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) ||
		errors.Is(err, common.ErrDuplicateUsername) {
		s.log.Debug(ctx, op+" rejected", "username", username, "error", err)
		return err
	}
	s.log.Error(ctx, op+" failed", "username", username, "error", err)
	return err
}
