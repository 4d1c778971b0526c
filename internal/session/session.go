// Package session carries the authenticated caller through a request.
// Services receive a Session explicitly; nothing reads identity from
// globals.
package session

import "github.com/iliyamo/ecocharge-reservation/internal/model"

// Session identifies the caller of an operation.
type Session struct {
	UserID uint64
	Role   model.Role
}

// IsOperator reports whether the caller manages stations and campaigns.
func (s Session) IsOperator() bool { return s.Role == model.RoleOperator }

// CanActFor reports whether the caller may act on resources belonging to
// userID. Operators may act on behalf of any user.
func (s Session) CanActFor(userID uint64) bool {
	return s.UserID == userID || s.IsOperator()
}
