// Package auth issues and verifies the HS256 access tokens handed to
// operators of the management interface.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the operator identity and role alongside the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	OperatorID int64  `json:"oid"`
	Username   string `json:"usr"`
	Role       string `json:"role"`
}

// GenerateToken signs a token for the operator that expires validity after now.
func GenerateToken(operatorID int64, username, role string, secretKey []byte, now time.Time, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		OperatorID: operatorID,
		Username:   username,
		Role:       role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseToken verifies tokenString as of now and returns its claims. Expired tokens
// yield common.ErrTokenExpired, anything else that fails verification
// yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
