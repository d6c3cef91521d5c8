// Package auth implements the authentication and authorization core of
// the platform: credential verification, per-username login throttling,
// CSRF tokens, server-side sessions with sliding expiration, the role
// hierarchy, and the audit trail.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/inkset/inkwell/internal/config"
	"github.com/inkset/inkwell/internal/store"
)

type (
	// Client carries the request-scoped metadata every operation wants:
	// the caller's session id and the client fields recorded on audit
	// entries. Handlers build one per request instead of reaching into
	// ambient state.
	Client struct {
		SessionID string
		IP        string
		UserAgent string
	}

	// Service composes the hasher, rate limiter, session manager and
	// audit recorder behind the login, register and logout operations.
	Service struct {
		store    *store.Store
		sessions *SessionManager
		limiter  *RateLimiter
		audit    *Recorder

		passwordMinLength int
		now               func() time.Time
	}
)

var (
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	emailRE    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func NewService(cfg config.Config, st *store.Store) *Service {
	return &Service{
		store:             st,
		sessions:          NewSessionManager(st, cfg.SessionTimeout),
		limiter:           NewRateLimiter(st, cfg.MaxLoginAttempts, cfg.LoginLockoutTime),
		audit:             NewRecorder(st),
		passwordMinLength: cfg.PasswordMinLength,
		now:               time.Now,
	}
}

func (s *Service) Sessions() *SessionManager { return s.sessions }
func (s *Service) Limiter() *RateLimiter     { return s.limiter }
func (s *Service) Audit() *Recorder          { return s.audit }

// Login runs the full gate sequence: input shape, rate limit, account
// lookup, password check. Unknown accounts and wrong passwords fail the
// same way, and both bump the per-username counter. CSRF verification is
// the caller's precondition, not repeated here.
func (s *Service) Login(ctx context.Context, client Client, username, password string) (store.Session, *Principal, error) {
	username = strings.TrimSpace(username)
	if !usernameRE.MatchString(username) && !emailRE.MatchString(username) {
		return store.Session{}, nil, invalidInput("username", "Invalid username format.")
	}
	if password == "" {
		return store.Session{}, nil, invalidInput("password", "Password is required.")
	}

	allowed, err := s.limiter.CheckAllowed(ctx, username)
	if err != nil {
		return store.Session{}, nil, fmt.Errorf("unable to check login attempts, cause %w", err)
	}
	if !allowed {
		return store.Session{}, nil, ErrRateLimited
	}

	user, err := s.store.FindActiveByLogin(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		if rerr := s.limiter.RecordFailure(ctx, username); rerr != nil {
			return store.Session{}, nil, fmt.Errorf("unable to record failed login, cause %w", rerr)
		}
		return store.Session{}, nil, ErrInvalidCredentials
	} else if err != nil {
		return store.Session{}, nil, fmt.Errorf("unable to look up account, cause %w", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		if rerr := s.limiter.RecordFailure(ctx, username); rerr != nil {
			return store.Session{}, nil, fmt.Errorf("unable to record failed login, cause %w", rerr)
		}
		s.audit.Record(ctx, Event{
			Actor: &user.ID, Action: ActionFailedLogin,
			IP: client.IP, UserAgent: client.UserAgent,
		})
		return store.Session{}, nil, ErrInvalidCredentials
	}

	if err := s.limiter.RecordSuccess(ctx, username); err != nil {
		return store.Session{}, nil, fmt.Errorf("unable to clear login attempts, cause %w", err)
	}
	if err := s.store.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return store.Session{}, nil, err
	}
	sess, err := s.sessions.Login(ctx, client.SessionID, user, client.IP, client.UserAgent)
	if err != nil {
		return store.Session{}, nil, fmt.Errorf("unable to establish session, cause %w", err)
	}
	s.audit.Record(ctx, Event{
		Actor: &user.ID, Action: ActionLogin,
		IP: client.IP, UserAgent: client.UserAgent,
	})
	role, _ := ParseRole(user.Role)
	principal := &Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		LoginAt:   s.now(),
	}
	return sess, principal, nil
}

// Register creates an account. The uniqueness pre-checks only shape the
// error message; the UNIQUE constraints on the users table are what
// actually prevent duplicates under concurrent registration.
func (s *Service) Register(ctx context.Context, client Client, username, email, password, firstName, lastName string, role Role) (int64, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if !usernameRE.MatchString(username) {
		return 0, invalidInput("username", "Username must be 3-50 characters and contain only letters, numbers, and underscores.")
	}
	if !emailRE.MatchString(email) {
		return 0, invalidInput("email", "Please enter a valid email address.")
	}
	if len(password) < s.passwordMinLength {
		return 0, invalidInput("password", fmt.Sprintf("Password must be at least %v characters long.", s.passwordMinLength))
	}
	if firstName == "" || lastName == "" {
		return 0, invalidInput("name", "First name and last name are required.")
	}
	if role == RoleUnknown {
		role = RoleAuthor
	}

	if taken, err := s.store.UsernameExists(ctx, username); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrDuplicateUsername
	}
	if taken, err := s.store.EmailExists(ctx, email); err != nil {
		return 0, err
	} else if taken {
		return 0, ErrDuplicateEmail
	}

	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}
	id, err := s.store.CreateUser(ctx, store.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role.String(),
		Status:       StatusActive.String(),
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    s.now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrUsernameTaken):
		return 0, ErrDuplicateUsername
	case errors.Is(err, store.ErrEmailTaken):
		return 0, ErrDuplicateEmail
	default:
		return 0, fmt.Errorf("unable to create account, cause %w", err)
	}
	s.audit.Record(ctx, Event{
		Actor: &id, Action: ActionRegister,
		IP: client.IP, UserAgent: client.UserAgent,
	})
	return id, nil
}

// Logout audits the event, retires the caller's session and returns a
// fresh anonymous one for the goodbye flash.
func (s *Service) Logout(ctx context.Context, client Client) (store.Session, error) {
	principal, err := s.sessions.Peek(ctx, client.SessionID)
	if err != nil {
		return store.Session{}, err
	}
	if principal != nil {
		s.audit.Record(ctx, Event{
			Actor: &principal.UserID, Action: ActionLogout,
			IP: client.IP, UserAgent: client.UserAgent,
		})
	}
	return s.sessions.End(ctx, client.SessionID, client.IP, client.UserAgent)
}

// UpdateUserRole changes a user's role on behalf of actor, auditing the
// old and new values. Admins cannot change their own role.
func (s *Service) UpdateUserRole(ctx context.Context, client Client, actor Principal, targetID int64, newRole Role) error {
	if newRole == RoleUnknown {
		return invalidInput("role", "Invalid user or role selection.")
	}
	if actor.UserID == targetID {
		return invalidInput("role", "You cannot change your own role.")
	}
	old, err := s.store.UpdateUserRole(ctx, targetID, newRole.String())
	if errors.Is(err, store.ErrNotFound) {
		return invalidInput("role", "Invalid user or role selection.")
	} else if err != nil {
		return fmt.Errorf("unable to update user role, cause %w", err)
	}
	s.audit.Record(ctx, Event{
		Actor: &actor.UserID, Action: ActionRoleUpdate,
		TableName: "users", RecordID: &targetID,
		OldValues: map[string]string{"role": old},
		NewValues: map[string]string{"role": newRole.String()},
		IP:        client.IP, UserAgent: client.UserAgent,
	})
	return nil
}

// UpdateUserStatus changes a user's status on behalf of actor. Admins
// cannot change their own status.
func (s *Service) UpdateUserStatus(ctx context.Context, client Client, actor Principal, targetID int64, newStatus Status) error {
	if newStatus == StatusUnknown {
		return invalidInput("status", "Invalid user or status selection.")
	}
	if actor.UserID == targetID {
		return invalidInput("status", "You cannot change your own status.")
	}
	old, err := s.store.UpdateUserStatus(ctx, targetID, newStatus.String())
	if errors.Is(err, store.ErrNotFound) {
		return invalidInput("status", "Invalid user or status selection.")
	} else if err != nil {
		return fmt.Errorf("unable to update user status, cause %w", err)
	}
	s.audit.Record(ctx, Event{
		Actor: &actor.UserID, Action: ActionStatusUpdate,
		TableName: "users", RecordID: &targetID,
		OldValues: map[string]string{"status": old},
		NewValues: map[string]string{"status": newStatus.String()},
		IP:        client.IP, UserAgent: client.UserAgent,
	})
	return nil
}
