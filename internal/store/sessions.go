package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	// Session mirrors one row of the sessions table. Anonymous sessions
	// (no bound account) have a NULL UserID; they exist so flash
	// messages survive a logout.
	Session struct {
		ID           string
		UserID       sql.NullInt64
		Username     string
		Role         string
		FirstName    string
		LastName     string
		CSRFToken    string
		FlashMessage string
		FlashKind    string
		IPAddress    string
		UserAgent    string
		LoginAt      sql.NullTime
		LastActivity time.Time
		IsActive     bool
	}
)

func (s *Store) InsertSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx,
		`insert into sessions (id, user_id, username, role, first_name, last_name, csrf_token,
		                       flash_message, flash_kind, ip_address, user_agent, login_at, last_activity, is_active)
		 values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.Username, sess.Role, sess.FirstName, sess.LastName, sess.CSRFToken,
		sess.FlashMessage, sess.FlashKind, sess.IPAddress, sess.UserAgent, sess.LoginAt, sess.LastActivity, sess.IsActive)
	if err != nil {
		return fmt.Errorf("unable to insert session, cause %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`select id, user_id, username, role, first_name, last_name, csrf_token,
		        flash_message, flash_kind, ip_address, user_agent, login_at, last_activity, is_active
		 from sessions where id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &sess.Username, &sess.Role, &sess.FirstName, &sess.LastName, &sess.CSRFToken,
			&sess.FlashMessage, &sess.FlashKind, &sess.IPAddress, &sess.UserAgent, &sess.LoginAt, &sess.LastActivity, &sess.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	} else if err != nil {
		return Session{}, fmt.Errorf("unable to load session, cause %w", err)
	}
	return sess, nil
}

func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `update sessions set last_activity = ? where id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("unable to touch session, cause %w", err)
	}
	return nil
}

func (s *Store) DeactivateSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `update sessions set is_active = 0 where id = ?`, id)
	if err != nil {
		return fmt.Errorf("unable to deactivate session, cause %w", err)
	}
	return nil
}

func (s *Store) SetSessionCSRFToken(ctx context.Context, id, token string) error {
	_, err := s.db.ExecContext(ctx, `update sessions set csrf_token = ? where id = ?`, token, id)
	if err != nil {
		return fmt.Errorf("unable to store csrf token, cause %w", err)
	}
	return nil
}

func (s *Store) SetSessionFlash(ctx context.Context, id, message, kind string) error {
	_, err := s.db.ExecContext(ctx, `update sessions set flash_message = ?, flash_kind = ? where id = ?`, message, kind, id)
	if err != nil {
		return fmt.Errorf("unable to store flash message, cause %w", err)
	}
	return nil
}

func (s *Store) ClearSessionFlash(ctx context.Context, id string) error {
	return s.SetSessionFlash(ctx, id, "", "")
}
