package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Username     string
	Role         string
}

// NewOperator is the input of operator creation. An empty Role means RoleUser.
type NewOperator struct {
	Username string
	Password string
	Fullname string
	Role     string
}

// OperatorService handles operator login, refresh-token rotation and the
// management of operator logins.
type OperatorService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	clock                        quartz.Clock
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	hashCost                     int
}

// NewOperatorService constructs an OperatorService using repositories and server config.
func NewOperatorService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock quartz.Clock, log logging.Logger) *OperatorService {
	return &OperatorService{
		db:                           db,
		repomanager:                  m,
		clock:                        clock,
		log:                          log,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		hashCost:                     bcrypt.DefaultCost,
	}
}

// Login checks the password of an active operator and returns a new
// TokenPair. Unknown, disabled and wrong-password logins all yield
// common.ErrUnauthorized.
func (s *OperatorService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	op, err := s.repomanager.Operators(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Keeps unknown usernames from answering faster than known ones.
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return nil, common.ErrUnauthorized
		}
		return nil, common.NewStoreError("login", err)
	}

	if err := bcrypt.CompareHashAndPassword(op.PasswordHash, []byte(password)); err != nil {
		s.log.Warn(ctx, "operator login failed", "username", username)
		return nil, common.ErrUnauthorized
	}
	if op.Status != models.StatusActive {
		s.log.Warn(ctx, "disabled operator login", "username", username)
		return nil, common.ErrUnauthorized
	}

	pair, err := s.generateTokenPair(ctx, op, s.db)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "operator logged in", "username", username)
	return pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
// A token is single-use: only the call whose delete removes the row gets a pair.
func (s *OperatorService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.NewStoreError("refresh token", err)
	}
	if token.Expires.Before(s.clock.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// rotated by a concurrent call after our Find
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		op, err := s.repomanager.Operators(tx).Get(ctx, token.OperatorID)
		if err != nil {
			return err
		}
		if op.Status != models.StatusActive {
			return common.ErrUnauthorized
		}
		pair, err = s.generateTokenPair(ctx, op, tx)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return pair, nil
}

// CreateOperator hashes the password with bcrypt and stores the operator.
func (s *OperatorService) CreateOperator(ctx context.Context, in NewOperator) (*models.Operator, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, common.Validationf("username is required")
	}
	if in.Password == "" {
		return nil, common.Validationf("password is required")
	}
	switch in.Role {
	case "":
		in.Role = models.RoleUser
	case models.RoleAdmin, models.RoleUser:
	default:
		return nil, common.Validationf("unknown role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, common.Validationf("password: %v", err)
	}

	op, err := s.repomanager.Operators(s.db).Create(ctx, &models.Operator{
		Username:     in.Username,
		PasswordHash: hash,
		Fullname:     in.Fullname,
		Role:         in.Role,
		Status:       models.StatusActive,
	})
	if err != nil {
		return nil, common.NewStoreError("create operator", err)
	}

	s.log.Info(ctx, "operator created", "username", op.Username, "role", op.Role)
	return op, nil
}

func (s *OperatorService) ListOperators(ctx context.Context) ([]*models.Operator, error) {
	list, err := s.repomanager.Operators(s.db).List(ctx)
	if err != nil {
		return nil, common.NewStoreError("list operators", err)
	}
	return list, nil
}

// Authenticate verifies an access token against the service clock.
func (s *OperatorService) Authenticate(accessToken string) (*auth.Claims, error) {
	return auth.ParseToken(accessToken, s.jwtSecret, s.clock.Now())
}

// --- helpers below ---

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("hotspotkeeper"), bcrypt.DefaultCost)
	return h
})

func (s *OperatorService) generateTokenPair(ctx context.Context, op *models.Operator, tx dbx.DBTX) (*TokenPair, error) {
	now := s.clock.Now()

	access, err := auth.GenerateToken(op.ID, op.Username, op.Role, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, op.ID, refresh, now.Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, common.NewStoreError("store refresh token", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.accessTokenValidityDuration),
		Username:     op.Username,
		Role:         op.Role,
	}, nil
}
