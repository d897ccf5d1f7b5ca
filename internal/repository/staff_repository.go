package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tsukue/slotbook/internal/model"
	"github.com/tsukue/slotbook/internal/utils"
)

// StaffRepo provides access to staff accounts used by the rule-management
// endpoints.
type StaffRepo struct{ DB *sql.DB }

// NewStaffRepo returns a StaffRepo bound to the given database.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

const staffColumns = `id, email, password_hash, role, store_id, is_active, created_at, updated_at`

// Create inserts a staff account and returns its ID.  Emails are
// normalized to lower case before hashing and insert.  A duplicate email
// surfaces as ErrConstraintViolation.
func (r *StaffRepo) Create(ctx context.Context, email, password, role, storeID string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO staff_users (email, password_hash, role, store_id) VALUES (?,?,?,?)`,
		email, hash, role, storeID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConstraintViolation
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a staff account by normalized email.
func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (model.StaffUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.StaffUser
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff_users WHERE email=? LIMIT 1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.StoreID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a staff account by id.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.StaffUser, error) {
	var u model.StaffUser
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff_users WHERE id=? LIMIT 1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.StoreID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
