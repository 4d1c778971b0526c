package model

import "time"

// Role is the coarse permission level of an account.
type Role string

const (
	RoleDriver   Role = "DRIVER"
	RoleOperator Role = "OPERATOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleDriver || r == RoleOperator }

// User represents an application user record as stored in the
// `users` table. Balances (Coins, CO2Saved, XP) start at zero and are only
// mutated by reward settlement.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique, trimmed, lower-cased address.
//  PasswordHash – bcrypt hashed password.
//  Role         – DRIVER or OPERATOR, fixed at registration.
//  Coins        – accumulated reward coins.
//  CO2Saved     – accumulated CO2 savings in kilograms.
//  XP           – accumulated experience points.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	Coins        int64     // users.coins
	CO2Saved     float64   // users.co2_saved
	XP           int64     // users.xp
	CreatedAt    time.Time // users.created_at
}

// Balances is the reward-related projection of a user returned after
// settlement.
type Balances struct {
	UserID   uint64
	Coins    int64
	CO2Saved float64
	XP       int64
}
