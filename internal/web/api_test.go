package web_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/inkset/inkwell/internal/config"
	"github.com/inkset/inkwell/internal/store"
	"github.com/inkset/inkwell/internal/testutil"
	"github.com/inkset/inkwell/internal/web"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/require"
)

func acquireHandler(t *testing.T, name string) (http.Handler, *store.Store, func()) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, name)
	handler, err := web.NewHandler(ctx, config.Default(), st)
	require.NoError(t, err)
	return handler, st, cleanup
}

func seedAuthorWithPost(ctx context.Context, t *testing.T, st *store.Store, username, title string, published bool) int64 {
	t.Helper()
	authorID, err := st.CreateUser(ctx, store.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		Role:         "author",
		Status:       "active",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	postID, err := st.CreatePost(ctx, store.Post{
		Title:       title,
		Content:     "Content of " + title + ", long enough to pass validation.",
		AuthorID:    authorID,
		IsPublished: published,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	return postID
}

func TestHealthz(t *testing.T) {
	handler, _, cleanup := acquireHandler(t, "api-healthz")
	defer cleanup()

	apitest.New().
		Handler(handler).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.status`, "ok")).
		End()
}

func TestAPIPostsFeed(t *testing.T) {
	handler, st, cleanup := acquireHandler(t, "api-posts")
	defer cleanup()
	ctx := context.Background()

	seedAuthorWithPost(ctx, t, st, "alice", "Published entry", true)
	seedAuthorWithPost(ctx, t, st, "bob", "Hidden draft", false)

	apitest.New().
		Handler(handler).
		Get("/api/posts").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len(`$.posts`, 1)).
		Assert(jsonpath.Equal(`$.posts[0].title`, "Published entry")).
		Assert(jsonpath.Equal(`$.posts[0].author`, "alice")).
		End()
}

func TestAPIPostsFeedEmpty(t *testing.T) {
	handler, _, cleanup := acquireHandler(t, "api-posts-empty")
	defer cleanup()

	apitest.New().
		Handler(handler).
		Get("/api/posts").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Len(`$.posts`, 0)).
		End()
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _, cleanup := acquireHandler(t, "api-metrics")
	defer cleanup()

	apitest.New().
		Handler(handler).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		End()
}
