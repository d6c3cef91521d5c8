package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	// LoginAttempt tracks failed logins per submitted username. The key
	// is the raw string the client sent, whether or not an account with
	// that name exists.
	LoginAttempt struct {
		Username    string
		Attempts    int
		LastAttempt time.Time
	}
)

func (s *Store) GetLoginAttempt(ctx context.Context, username string) (LoginAttempt, error) {
	var a LoginAttempt
	err := s.db.QueryRowContext(ctx,
		`select username, attempts, last_attempt from login_attempts where username = ?`, username).
		Scan(&a.Username, &a.Attempts, &a.LastAttempt)
	if errors.Is(err, sql.ErrNoRows) {
		return LoginAttempt{}, ErrNotFound
	} else if err != nil {
		return LoginAttempt{}, fmt.Errorf("unable to load login attempts for %v, cause %w", username, err)
	}
	return a, nil
}

// RecordFailedLogin bumps the failure counter for username in a single
// statement, so two concurrent failures count as two.
func (s *Store) RecordFailedLogin(ctx context.Context, username string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`insert into login_attempts (username, attempts, last_attempt) values (?, 1, ?)
		 on conflict (username) do update set attempts = attempts + 1, last_attempt = excluded.last_attempt`,
		username, at)
	if err != nil {
		return fmt.Errorf("unable to record failed login for %v, cause %w", username, err)
	}
	return nil
}

func (s *Store) ClearLoginAttempts(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `delete from login_attempts where username = ?`, username)
	if err != nil {
		return fmt.Errorf("unable to clear login attempts for %v, cause %w", username, err)
	}
	return nil
}
