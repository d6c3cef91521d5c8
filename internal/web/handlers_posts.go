package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkset/inkwell/internal/auth"
	"github.com/inkset/inkwell/internal/store"
	"github.com/julienschmidt/httprouter"
)

func postID(r *http.Request) (int64, bool) {
	raw := httprouter.ParamsFromContext(r.Context()).ByName("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

func isNewPostRoute(r *http.Request) bool {
	return httprouter.ParamsFromContext(r.Context()).ByName("id") == "new"
}

func (s *Server) handlePostView(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	if isNewPostRoute(r) {
		if !s.requireRole(w, r, rc, auth.RoleAuthor) {
			return
		}
		data, err := s.newPageData(ctx, rc, "Create New Post")
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		data.Form = map[string]string{"is_published": "1"}
		s.render(w, r, http.StatusOK, "post_form", data)
		return
	}

	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	cacheable := rc.Principal == nil && rc.Flash == ""
	if cacheable {
		if body, found := s.cache.Get(r.URL.Path, ""); found {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(body)
			return
		}
	}
	post, err := s.store.GetPost(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	canModify := rc.Principal != nil &&
		auth.CanModifyPost(post.AuthorID, rc.Principal.UserID, rc.Principal.Role)
	if !post.IsPublished && !canModify {
		// drafts are invisible, not forbidden
		http.NotFound(w, r)
		return
	}
	data, err := s.newPageData(ctx, rc, post.Title)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	data.Post = post
	data.CanModify = canModify
	if cacheable {
		s.renderAndCache(w, r, "post_view", data)
		return
	}
	s.render(w, r, http.StatusOK, "post_view", data)
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	if !isNewPostRoute(r) {
		http.NotFound(w, r)
		return
	}
	if !s.requireRole(w, r, rc, auth.RoleAuthor) {
		return
	}
	data, err := s.newPageData(ctx, rc, "Create New Post")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	title, content, published, form, msg := postForm(r)
	data.Form = form
	if !s.checkCSRF(r, rc) {
		data.Error = badTokenMessage
		s.render(w, r, http.StatusOK, "post_form", data)
		return
	}
	if msg != "" {
		data.Error = msg
		s.render(w, r, http.StatusOK, "post_form", data)
		return
	}
	id, err := s.store.CreatePost(ctx, store.Post{
		Title:       title,
		Content:     content,
		AuthorID:    rc.Principal.UserID,
		IsPublished: published,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.cache.Reset()
	s.redirectWithFlash(w, r, rc, fmt.Sprintf("/posts/%v", id), "Post created successfully!", "success")
}

func (s *Server) handlePostEditForm(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	post, ok := s.loadModifiablePost(w, r, rc)
	if !ok {
		return
	}
	data, err := s.newPageData(ctx, rc, "Edit Post")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	published := "0"
	if post.IsPublished {
		published = "1"
	}
	data.Form = map[string]string{
		"title":        post.Title,
		"content":      post.Content,
		"is_published": published,
	}
	s.render(w, r, http.StatusOK, "post_form", data)
}

func (s *Server) handlePostEdit(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	post, ok := s.loadModifiablePost(w, r, rc)
	if !ok {
		return
	}
	data, err := s.newPageData(ctx, rc, "Edit Post")
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	title, content, published, form, msg := postForm(r)
	data.Form = form
	if !s.checkCSRF(r, rc) {
		data.Error = badTokenMessage
		s.render(w, r, http.StatusOK, "post_form", data)
		return
	}
	if msg != "" {
		data.Error = msg
		s.render(w, r, http.StatusOK, "post_form", data)
		return
	}
	if err := s.store.UpdatePost(ctx, post.ID, title, content, published, time.Now()); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.cache.Reset()
	s.redirectWithFlash(w, r, rc, fmt.Sprintf("/posts/%v", post.ID), "Post updated successfully!", "success")
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request, rc *reqCtx) {
	ctx := r.Context()
	post, ok := s.loadModifiablePost(w, r, rc)
	if !ok {
		return
	}
	if !s.checkCSRF(r, rc) {
		s.redirectWithFlash(w, r, rc, fmt.Sprintf("/posts/%v", post.ID), badTokenMessage, "error")
		return
	}
	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.cache.Reset()
	s.redirectWithFlash(w, r, rc, "/dashboard", "Post deleted successfully.", "success")
}

// loadModifiablePost resolves the :id parameter and enforces the post
// modification rule: editors and admins touch anything, authors only
// their own posts.
func (s *Server) loadModifiablePost(w http.ResponseWriter, r *http.Request, rc *reqCtx) (store.Post, bool) {
	if !s.requireAuth(w, r, rc) {
		return store.Post{}, false
	}
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return store.Post{}, false
	}
	post, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return store.Post{}, false
	} else if err != nil {
		s.serverError(w, r, err)
		return store.Post{}, false
	}
	if !auth.CanModifyPost(post.AuthorID, rc.Principal.UserID, rc.Principal.Role) {
		s.redirectWithFlash(w, r, rc, "/dashboard", auth.UserMessage(auth.ErrAuthorizationDenied), "error")
		return store.Post{}, false
	}
	return post, true
}

func postForm(r *http.Request) (title, content string, published bool, form map[string]string, msg string) {
	title = strings.TrimSpace(r.PostFormValue("title"))
	content = strings.TrimSpace(r.PostFormValue("content"))
	published = r.PostFormValue("is_published") == "1"
	form = map[string]string{
		"title":        title,
		"content":      content,
		"is_published": r.PostFormValue("is_published"),
	}
	switch {
	case title == "":
		msg = "Title is required."
	case len(title) > 200:
		msg = "Title must be no more than 200 characters."
	case content == "":
		msg = "Content is required."
	case len(content) < 10:
		msg = "Content must be at least 10 characters long."
	}
	return
}
