// Package models defines the records read from and written to the shared
// hotspot schema, and the result records produced by the analytics services.
package models

import "time"

// Credential attributes understood by the RADIUS subsystem.
const (
	AttributeSecret           = "secret"
	AttributeConcurrencyLimit = "concurrency-limit"
)

// CredentialOperator is the check operator written with every credential row.
const CredentialOperator = ":="

// Account is an identity row. Username never changes after creation;
// PlanID is nil when the account has no plan.
type Account struct {
	Username  string
	Firstname string
	Lastname  string
	Company   string
	PlanID    *int64
	CreatedAt time.Time
}

// Credential is one attribute/value pair scoped to a username.
type Credential struct {
	ID        int64
	Username  string
	Attribute string
	Operator  string
	Value     string
}

// Plan is a named service tier. Read-only for this system.
type Plan struct {
	ID        int64
	Name      string
	UnitPrice *float64
	Unit      *string
}

// NewAccount is the input of account creation.
type NewAccount struct {
	Username  string
	Password  string
	Firstname string
	Lastname  string
	Company   string
	PlanID    *int64
}

// AccountPatch is a partial update. Nil fields are left untouched.
// ClearPlan detaches the account from its plan; it cannot be combined with PlanID.
type AccountPatch struct {
	Firstname *string
	Lastname  *string
	Company   *string
	PlanID    *int64
	ClearPlan bool
	Password  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Firstname == nil && p.Lastname == nil && p.Company == nil &&
		p.PlanID == nil && !p.ClearPlan && p.Password == nil
}
