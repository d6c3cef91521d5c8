package web

import (
	"net"
	"net/http"
	"sync"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/logutil"
	"github.com/inkset/inkwell/internal/store"
	"golang.org/x/time/rate"
)

const sessionCookie = "inkwell_session"

type (
	// reqCtx is the request-scoped state every handler receives: the
	// caller's session, the authenticated principal when there is one,
	// the client metadata for audit entries, and any pending flash.
	reqCtx struct {
		Session   store.Session
		Principal *auth.Principal
		Client    auth.Client
		Flash     string
		FlashKind string
	}

	handlerFunc func(w http.ResponseWriter, r *http.Request, rc *reqCtx)

	// ipThrottle slows bursts from a single client address in front of
	// the credential endpoints. It backs up the per-username lockout,
	// it does not replace it.
	ipThrottle struct {
		mu      sync.Mutex
		clients map[string]*rate.Limiter
		limit   rate.Limit
		burst   int
	}
)

func newIPThrottle(limit rate.Limit, burst int) *ipThrottle {
	return &ipThrottle{
		clients: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (t *ipThrottle) allow(ip string) bool {
	t.mu.Lock()
	limiter, ok := t.clients[ip]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.clients[ip] = limiter
	}
	t.mu.Unlock()
	return limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// page wraps a handler with the request logger and the session bootstrap.
// Every page handler goes through here; failures to even establish a
// session surface as a generic error, never as internals.
func (s *Server) page(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, logger := logutil.RequestLogger(r)
		rc, err := s.openRequest(w, r)
		if err != nil {
			logger.Error().Err(err).Msg("Unable to open request session")
			http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
			return
		}
		fn(w, r, rc)
	}
}

// openRequest continues the caller's session or starts a fresh anonymous
// one when the cookie is missing, expired, or retired.
func (s *Server) openRequest(w http.ResponseWriter, r *http.Request) (*reqCtx, error) {
	ctx := r.Context()
	var cookieID string
	if c, err := r.Cookie(sessionCookie); err == nil {
		cookieID = c.Value
	}
	sess, principal, err := s.auth.Sessions().Authenticate(ctx, cookieID)
	if err != nil {
		return nil, err
	}
	dead := sess.ID == "" || !sess.IsActive || (principal == nil && sess.UserID.Valid)
	if dead {
		sess, err = s.auth.Sessions().StartAnonymous(ctx, clientIP(r), r.UserAgent())
		if err != nil {
			return nil, err
		}
		principal = nil
	}
	if sess.ID != cookieID {
		setSessionCookie(w, sess.ID)
	}
	flash, kind, err := s.auth.Sessions().ConsumeFlash(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &reqCtx{
		Session:   sess,
		Principal: principal,
		Client: auth.Client{
			SessionID: sess.ID,
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		},
		Flash:     flash,
		FlashKind: kind,
	}, nil
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireAuth sends unauthenticated callers to the login page with a
// flash. Handlers must stop when it returns false.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request, rc *reqCtx) bool {
	if rc.Principal != nil {
		return true
	}
	s.redirectWithFlash(w, r, rc, "/login", auth.UserMessage(auth.ErrAuthenticationRequired), "warning")
	return false
}

// requireRole layers the role check on top of requireAuth. Insufficient
// role is a distinct signal from not being logged in: the caller lands on
// their dashboard, not the login page.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, rc *reqCtx, role auth.Role) bool {
	if !s.requireAuth(w, r, rc) {
		return false
	}
	if rc.Principal.Role.AtLeast(role) {
		return true
	}
	s.redirectWithFlash(w, r, rc, "/dashboard", auth.UserMessage(auth.ErrAuthorizationDenied), "error")
	return false
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, rc *reqCtx, target, message, kind string) {
	if err := s.auth.Sessions().Flash(r.Context(), rc.Session.ID, message, kind); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Msg("Unable to queue flash message")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// checkCSRF verifies the form token against the session in constant time.
func (s *Server) checkCSRF(r *http.Request, rc *reqCtx) bool {
	return s.auth.Sessions().VerifyCSRF(rc.Session, r.PostFormValue(auth.CSRFTokenField))
}
