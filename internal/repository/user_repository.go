package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lmarsden/film-catalog/internal/model"
)

// UserRepo provides access to the `user` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, first_name, last_name, password_hash, image_filename, created_at"

// Create inserts a user and returns its id. The email is stored
// lower-cased; a duplicate yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName, passwordHash string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user (email, first_name, last_name, password_hash) VALUES (?,?,?,?)",
		email, firstName, lastName, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), mysqlDuplicateKey) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM user WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM user WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.ImageFilename, &u.CreatedAt)
	return u, err
}

// UpdateEmail changes a user's email; duplicates yield ErrEmailExists.
func (r *UserRepo) UpdateEmail(ctx context.Context, id uint64, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx, "UPDATE user SET email=? WHERE id=?", email, id)
	if err != nil && strings.Contains(err.Error(), mysqlDuplicateKey) {
		return ErrEmailExists
	}
	return err
}

// UpdateName changes first and/or last name; nil members are left
// untouched.
func (r *UserRepo) UpdateName(ctx context.Context, id uint64, firstName, lastName *string) error {
	if firstName != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE user SET first_name=? WHERE id=?", *firstName, id); err != nil {
			return err
		}
	}
	if lastName != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE user SET last_name=? WHERE id=?", *lastName, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE user SET password_hash=? WHERE id=?", passwordHash, id)
	return err
}

// SetImage records the profile image object key.
func (r *UserRepo) SetImage(ctx context.Context, id uint64, filename string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE user SET image_filename=? WHERE id=?", filename, id)
	return err
}

// ClearImage removes the profile image reference.
func (r *UserRepo) ClearImage(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE user SET image_filename=NULL WHERE id=?", id)
	return err
}
