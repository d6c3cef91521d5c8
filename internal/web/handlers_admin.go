package web

import (
	"net/http"
	"strconv"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/logutil"
)

const recentActivityLimit = 10

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	if !s.requireRole(w, r, rc, auth.RoleAdmin) {
		return
	}
	ctx := r.Context()
	users, err := s.store.ListUserSummaries(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	roleCounts, err := s.store.CountUsersByRole(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	totalPosts, err := s.store.CountPosts(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	activity, err := s.store.ListRecentAuditEntries(ctx, recentActivityLimit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data, err := s.newPageData(ctx, rc, "Admin Dashboard")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Users = users
	data.RoleCounts = roleCounts
	data.TotalPosts = totalPosts
	data.Activity = activity
	data.Roles = auth.Roles
	data.Statuses = auth.Statuses
	s.render(w, r, http.StatusOK, "admin", data)
}

func (s *Server) handleAdminRole(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	if !s.requireRole(w, r, rc, auth.RoleAdmin) {
		return
	}
	if !s.checkCSRF(r, rc) {
		s.redirectWithFlash(w, r, rc, "/admin", badTokenMessage, "error")
		return
	}
	targetID, _ := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	role, _ := auth.ParseRole(r.PostFormValue("role"))
	err := s.auth.UpdateUserRole(r.Context(), rc.Client, *rc.Principal, targetID, role)
	if err != nil {
		if !auth.Recoverable(err) {
			logger := logutil.GetOrDefault(r.Context())
			logger.Error().Err(err).Msg("Role update failed")
		}
		s.redirectWithFlash(w, r, rc, "/admin", auth.UserMessage(err), "error")
		return
	}
	s.redirectWithFlash(w, r, rc, "/admin", "User role updated successfully!", "success")
}

func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	if !s.requireRole(w, r, rc, auth.RoleAdmin) {
		return
	}
	if !s.checkCSRF(r, rc) {
		s.redirectWithFlash(w, r, rc, "/admin", badTokenMessage, "error")
		return
	}
	targetID, _ := strconv.ParseInt(r.PostFormValue("user_id"), 10, 64)
	status, _ := auth.ParseStatus(r.PostFormValue("status"))
	err := s.auth.UpdateUserStatus(r.Context(), rc.Client, *rc.Principal, targetID, status)
	if err != nil {
		if !auth.Recoverable(err) {
			logger := logutil.GetOrDefault(r.Context())
			logger.Error().Err(err).Msg("Status update failed")
		}
		s.redirectWithFlash(w, r, rc, "/admin", auth.UserMessage(err), "error")
		return
	}
	s.redirectWithFlash(w, r, rc, "/admin", "User status updated successfully!", "success")
}
