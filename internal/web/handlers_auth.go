package web

import (
	"errors"
	"net/http"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/logutil"
)

const badTokenMessage = "Invalid security token. Please try again."

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	if rc.Principal != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	data, err := s.newPageData(r.Context(), rc, "Login")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Form = map[string]string{}
	s.render(w, r, http.StatusOK, "login", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	if rc.Principal != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	if !s.throttle.allow(rc.Client.IP) {
		http.Error(w, "Too many requests. Please slow down.", http.StatusTooManyRequests)
		return
	}
	data, err := s.newPageData(ctx, rc, "Login")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	username := r.PostFormValue("username")
	data.Form = map[string]string{"username": username}
	if !s.checkCSRF(r, rc) {
		data.Error = badTokenMessage
		s.render(w, r, http.StatusOK, "login", data)
		return
	}

	sess, _, err := s.auth.Login(ctx, rc.Client, username, r.PostFormValue("password"))
	if err != nil {
		loginAttempts.WithLabelValues(loginOutcome(err)).Inc()
		s.fail(w, r, "login", data, err)
		return
	}
	loginAttempts.WithLabelValues("success").Inc()
	setSessionCookie(w, sess.ID)
	if ferr := s.auth.Sessions().Flash(ctx, sess.ID, "Login successful!", "success"); ferr != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(ferr).Msg("Unable to queue flash message")
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid_credentials"
	case auth.Recoverable(err):
		return "invalid_input"
	}
	return "error"
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	if rc.Principal != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	data, err := s.newPageData(r.Context(), rc, "Register")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Form = map[string]string{}
	s.render(w, r, http.StatusOK, "register", data)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	if rc.Principal != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	if !s.throttle.allow(rc.Client.IP) {
		http.Error(w, "Too many requests. Please slow down.", http.StatusTooManyRequests)
		return
	}
	data, err := s.newPageData(ctx, rc, "Register")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Form = map[string]string{
		"username":   r.PostFormValue("username"),
		"email":      r.PostFormValue("email"),
		"first_name": r.PostFormValue("first_name"),
		"last_name":  r.PostFormValue("last_name"),
	}
	if !s.checkCSRF(r, rc) {
		data.Error = badTokenMessage
		s.render(w, r, http.StatusOK, "register", data)
		return
	}

	// Self-service registration always lands on the default role; only
	// the admin dashboard promotes accounts.
	_, err = s.auth.Register(ctx, rc.Client,
		data.Form["username"], data.Form["email"], r.PostFormValue("password"),
		data.Form["first_name"], data.Form["last_name"], auth.RoleUnknown)
	if err != nil {
		s.fail(w, r, "register", data, err)
		return
	}
	registrations.Inc()
	s.redirectWithFlash(w, r, rc, "/login", "Registration successful! You can now log in.", "success")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	if !s.checkCSRF(r, rc) {
		s.redirectWithFlash(w, r, rc, "/", badTokenMessage, "error")
		return
	}
	sess, err := s.auth.Logout(ctx, rc.Client)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	setSessionCookie(w, sess.ID)
	if ferr := s.auth.Sessions().Flash(ctx, sess.ID, "You have been logged out successfully.", "success"); ferr != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(ferr).Msg("Unable to queue flash message")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
