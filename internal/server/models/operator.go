package models

import "time"

// Operator roles and statuses.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Operator is a login of the management interface. It is unrelated to the
// hotspot accounts and their credentials.
type Operator struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Fullname     string
	Role         string
	Status       string
	CreatedAt    time.Time
}

// RefreshToken is a server-stored, single-use operator refresh token.
type RefreshToken struct {
	OperatorID int64
	Token      string
	Expires    time.Time
}
