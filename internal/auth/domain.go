// Package auth handles admin accounts, JWT sessions and salary advances.
package auth

import (
	"time"

	"github.com/shopspring/decimal"
)

// Admin roles. SUPERADMIN unlocks the destructive and cross-admin routes.
const (
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

// Admin is one back-office account. The password hash never leaves the
// package.
type Admin struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	LoginID      string          `json:"loginId"`
	PasswordHash string          `json:"-"`
	Role         string          `json:"role"`
	Salary       decimal.Decimal `json:"salary"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// TokenPair is the credentials returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
