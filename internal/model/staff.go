package model

import "time"

// Staff roles.  STAFF may manage capacity rules for their store; ADMIN may
// manage any store.
const (
	RoleStaff = "STAFF"
	RoleAdmin = "ADMIN"
)

// StaffUser is a staff account as stored in the `staff_users` table.
// Staff accounts exist only to protect the rule-management endpoints; the
// public reservation API is unauthenticated.
type StaffUser struct {
	ID           uint64    // staff_users.id
	Email        string    // staff_users.email (unique)
	PasswordHash string    // staff_users.password_hash (bcrypt)
	Role         string    // staff_users.role (STAFF or ADMIN)
	StoreID      string    // staff_users.store_id (empty for ADMIN)
	IsActive     bool      // staff_users.is_active
	CreatedAt    time.Time // staff_users.created_at
	UpdatedAt    time.Time // staff_users.updated_at
}

// RefreshToken is a row in `refresh_tokens`.  Only the SHA-256 hash of the
// raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	StaffID   uint64     // refresh_tokens.staff_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
