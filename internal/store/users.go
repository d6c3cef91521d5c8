package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

type (
	// User mirrors one row of the users table. Role and Status are kept
	// as the wire-level strings; the auth package owns the closed
	// enumerations built on top of them.
	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		Role         string
		Status       string
		FirstName    string
		LastName     string
		CreatedAt    time.Time
		LastLogin    sql.NullTime
	}

	// UserSummary is the admin-dashboard projection of a user.
	UserSummary struct {
		ID        int64
		Username  string
		Email     string
		Role      string
		Status    string
		CreatedAt time.Time
		PostCount int
		LastPost  sql.NullTime
	}
)

// mapUniqueViolation translates a sqlite unique-constraint failure on the
// users table into the matching sentinel. The constraint is the actual
// enforcement point for registration uniqueness; callers may pre-check for
// friendlier errors but must not rely on the pre-check.
func mapUniqueViolation(err error) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}
	if serr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	switch {
	case strings.Contains(serr.Error(), "users.username"):
		return ErrUsernameTaken
	case strings.Contains(serr.Error(), "users.email"):
		return ErrEmailTaken
	}
	return err
}

func (s *Store) CreateUser(ctx context.Context, u User) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`insert into users (username, email, password_hash, role, status, first_name, last_name, created_at)
		 values (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Status, u.FirstName, u.LastName, u.CreatedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return 0, mapped
		}
		return 0, fmt.Errorf("unable to insert user %v, cause %w", u.Username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("unable to read id of new user %v, cause %w", u.Username, err)
	}
	return id, nil
}

const userColumns = `id, username, email, password_hash, role, status, first_name, last_name, created_at, last_login`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.FirstName, &u.LastName, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	} else if err != nil {
		return User{}, fmt.Errorf("unable to scan user row, cause %w", err)
	}
	return u, nil
}

// FindActiveByLogin looks an account up by username or email, restricted
// to active accounts. Inactive and banned accounts are invisible here.
func (s *Store) FindActiveByLogin(ctx context.Context, login string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where (username = ? or email = ?) and status = 'active'`,
		login, login)
	return scanUser(row)
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = ?`, id)
	return scanUser(row)
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(1) from users where username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("unable to check username %v, cause %w", username, err)
	}
	return n > 0, nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(1) from users where email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("unable to check email %v, cause %w", email, err)
	}
	return n > 0, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `update users set last_login = ? where id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("unable to stamp last login for user %v, cause %w", id, err)
	}
	return nil
}

// UpdateUserRole sets the role of a user and returns the previous value.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role string) (string, error) {
	return s.updateUserField(ctx, id, "role", role)
}

// UpdateUserStatus sets the status of a user and returns the previous value.
func (s *Store) UpdateUserStatus(ctx context.Context, id int64, status string) (string, error) {
	return s.updateUserField(ctx, id, "status", status)
}

func (s *Store) updateUserField(ctx context.Context, id int64, field, value string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("unable to begin %v update for user %v, cause %w", field, id, err)
	}
	defer tx.Rollback()
	var old string
	err = tx.QueryRowContext(ctx, `select `+field+` from users where id = ?`, id).Scan(&old)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	} else if err != nil {
		return "", fmt.Errorf("unable to read current %v of user %v, cause %w", field, id, err)
	}
	_, err = tx.ExecContext(ctx, `update users set `+field+` = ? where id = ?`, value, id)
	if err != nil {
		return "", fmt.Errorf("unable to update %v of user %v, cause %w", field, id, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("unable to commit %v update for user %v, cause %w", field, id, err)
	}
	return old, nil
}

// ListUserSummaries returns every account with its post statistics,
// newest account first.
func (s *Store) ListUserSummaries(ctx context.Context) ([]UserSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`select u.id, u.username, u.email, u.role, u.status, u.created_at,
		        count(p.id), max(p.created_at)
		 from users u
		 left join posts p on p.author_id = u.id
		 group by u.id, u.username, u.email, u.role, u.status, u.created_at
		 order by u.created_at desc, u.id desc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list users, cause %w", err)
	}
	defer rows.Close()
	var out []UserSummary
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Status, &u.CreatedAt, &u.PostCount, &u.LastPost); err != nil {
			return nil, fmt.Errorf("unable to scan user summary, cause %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `select role, count(1) from users group by role`)
	if err != nil {
		return nil, fmt.Errorf("unable to count users by role, cause %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("unable to scan role count, cause %w", err)
		}
		out[role] = n
	}
	return out, rows.Err()
}
