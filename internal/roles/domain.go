package roles

import "time"

// Module identifies a functional area of the system. A role is bound to
// exactly one module; admin covers all of them.
type Module string

const (
	ModulePlanning   Module = "planning"
	ModuleBudget     Module = "budget"
	ModuleAccounting Module = "accounting"
	ModuleTreasury   Module = "treasury"
	ModuleHRIS       Module = "hris"
	ModuleAdmin      Module = "admin"
)

// Role represents a named permission grouping bound to a module.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Module      Module    `json:"module"`
	IsEncoder   bool      `json:"isEncoder"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Actor is the authenticated caller of a service operation, resolved once
// per request by the HTTP layer and passed down explicitly.
type Actor struct {
	UserID int64
	Role   Role
}
