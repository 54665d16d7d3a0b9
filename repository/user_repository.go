package repository

import (
	"database/sql"
	"fmt"
	"time"

	"maestro/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UpdateUser(id int64, username, email string) error
	DeleteUser(id int64) error
}

// sqlUserRepository implements UserRepository over database/sql.
type sqlUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new sqlUserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

const userColumns = "id, username, email, password_hash, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, err
	}
	return user, nil
}

// CreateUser adds a new user. Uniqueness of username and email is enforced
// by the table constraints, not a pre-check; when the insert conflicts, the
// violated field is identified by re-reading and the specific duplicate
// error is returned.
func (r *sqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	now := time.Now()
	res, err := r.db.Exec(query, user.Username, user.Email, user.PasswordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			if existing, lookupErr := r.GetUserByUsername(user.Username); lookupErr == nil && existing != nil {
				return 0, ErrDuplicateUsername
			}
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *sqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *sqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *sqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row for email %s: %w", email, err)
	}
	return user, nil
}

// UpdateUser changes a user's username and email. The same uniqueness
// translation as CreateUser applies.
func (r *sqlUserRepository) UpdateUser(id int64, username, email string) error {
	query := "UPDATE users SET username = ?, email = ?, updated_at = ? WHERE id = ?"
	res, err := r.db.Exec(query, username, email, time.Now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			if existing, lookupErr := r.GetUserByUsername(username); lookupErr == nil && existing != nil && existing.ID != id {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user; playlists, playlist entries and likes go with
// it through the schema's cascades.
func (r *sqlUserRepository) DeleteUser(id int64) error {
	res, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
