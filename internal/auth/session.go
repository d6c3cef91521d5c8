package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkset/inkwell/internal/store"
)

type (
	// Principal is the authenticated identity cached on a session at
	// login time.
	Principal struct {
		UserID    int64
		Username  string
		Role      Role
		FirstName string
		LastName  string
		LoginAt   time.Time
	}

	// SessionManager owns the server-side session records. Sessions use
	// sliding expiration: Authenticate refreshes the activity stamp,
	// Peek does not, so callers (and tests) can tell the two apart.
	SessionManager struct {
		store   *store.Store
		timeout time.Duration
		now     func() time.Time
	}
)

func (p Principal) DisplayName() string {
	if p.FirstName == "" && p.LastName == "" {
		return p.Username
	}
	return p.FirstName + " " + p.LastName
}

func (p Principal) CanWritePosts() bool { return p.Role.AtLeast(RoleAuthor) }
func (p Principal) IsAdmin() bool       { return p.Role.AtLeast(RoleAdmin) }

func NewSessionManager(st *store.Store, timeout time.Duration) *SessionManager {
	return &SessionManager{store: st, timeout: timeout, now: time.Now}
}

// StartAnonymous creates a session with no bound account. Anonymous
// sessions carry CSRF tokens for the login and registration forms and the
// post-logout flash message.
func (m *SessionManager) StartAnonymous(ctx context.Context, ip, userAgent string) (store.Session, error) {
	sess := store.Session{
		ID:           uuid.NewString(),
		IPAddress:    ip,
		UserAgent:    userAgent,
		LastActivity: m.now(),
		IsActive:     true,
	}
	if err := m.store.InsertSession(ctx, sess); err != nil {
		return store.Session{}, err
	}
	return sess, nil
}

// Login binds a fresh session to the account and invalidates the previous
// session identifier, so an id handed out before authentication never
// survives the privilege change.
func (m *SessionManager) Login(ctx context.Context, previousSessionID string, user store.User, ip, userAgent string) (store.Session, error) {
	if previousSessionID != "" {
		if err := m.store.DeactivateSession(ctx, previousSessionID); err != nil {
			return store.Session{}, err
		}
	}
	now := m.now()
	sess := store.Session{
		ID:           uuid.NewString(),
		UserID:       sql.NullInt64{Int64: user.ID, Valid: true},
		Username:     user.Username,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IPAddress:    ip,
		UserAgent:    userAgent,
		LoginAt:      sql.NullTime{Time: now, Valid: true},
		LastActivity: now,
		IsActive:     true,
	}
	if err := m.store.InsertSession(ctx, sess); err != nil {
		return store.Session{}, err
	}
	return sess, nil
}

// Authenticate resolves a session id to its principal and refreshes the
// activity stamp. It returns (session, nil, nil) when the id is unknown,
// anonymous, inactive, or idle beyond the timeout; an expired session is
// deactivated on the spot.
func (m *SessionManager) Authenticate(ctx context.Context, id string) (store.Session, *Principal, error) {
	sess, principal, expired, err := m.resolve(ctx, id)
	if err != nil || principal == nil {
		if expired {
			if derr := m.store.DeactivateSession(ctx, id); derr != nil {
				return sess, nil, derr
			}
		}
		return sess, nil, err
	}
	if err := m.store.TouchSession(ctx, id, m.now()); err != nil {
		return sess, nil, err
	}
	sess.LastActivity = m.now()
	return sess, principal, nil
}

// Peek is the read-only variant of Authenticate: same answer, no touch.
func (m *SessionManager) Peek(ctx context.Context, id string) (*Principal, error) {
	_, principal, _, err := m.resolve(ctx, id)
	return principal, err
}

func (m *SessionManager) resolve(ctx context.Context, id string) (store.Session, *Principal, bool, error) {
	if id == "" {
		return store.Session{}, nil, false, nil
	}
	sess, err := m.store.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Session{}, nil, false, nil
	} else if err != nil {
		return store.Session{}, nil, false, err
	}
	if !sess.IsActive || !sess.UserID.Valid {
		return sess, nil, false, nil
	}
	if m.now().Sub(sess.LastActivity) > m.timeout {
		return sess, nil, true, nil
	}
	role, _ := ParseRole(sess.Role)
	p := &Principal{
		UserID:    sess.UserID.Int64,
		Username:  sess.Username,
		Role:      role,
		FirstName: sess.FirstName,
		LastName:  sess.LastName,
	}
	if sess.LoginAt.Valid {
		p.LoginAt = sess.LoginAt.Time
	}
	return sess, p, false, nil
}

// End deactivates the session and hands back a fresh anonymous one, so
// the caller can still queue a flash message for the next page.
func (m *SessionManager) End(ctx context.Context, id, ip, userAgent string) (store.Session, error) {
	if id != "" {
		if err := m.store.DeactivateSession(ctx, id); err != nil {
			return store.Session{}, err
		}
	}
	return m.StartAnonymous(ctx, ip, userAgent)
}

// CSRFToken returns the session's token, minting and persisting one on
// first demand.
func (m *SessionManager) CSRFToken(ctx context.Context, sess *store.Session) (string, error) {
	if sess.CSRFToken != "" {
		return sess.CSRFToken, nil
	}
	token, err := newCSRFToken()
	if err != nil {
		return "", err
	}
	if err := m.store.SetSessionCSRFToken(ctx, sess.ID, token); err != nil {
		return "", err
	}
	sess.CSRFToken = token
	return token, nil
}

// VerifyCSRF checks a submitted form token against the session.
func (m *SessionManager) VerifyCSRF(sess store.Session, supplied string) bool {
	return VerifyCSRFToken(sess.CSRFToken, supplied)
}

func (m *SessionManager) Flash(ctx context.Context, sessionID, message, kind string) error {
	return m.store.SetSessionFlash(ctx, sessionID, message, kind)
}

// ConsumeFlash returns and clears the session's one-shot message.
func (m *SessionManager) ConsumeFlash(ctx context.Context, sess store.Session) (message, kind string, err error) {
	if sess.FlashMessage == "" {
		return "", "", nil
	}
	if err := m.store.ClearSessionFlash(ctx, sess.ID); err != nil {
		return "", "", err
	}
	return sess.FlashMessage, sess.FlashKind, nil
}
