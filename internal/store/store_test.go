package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/inkset/inkwell/internal/store"
	"github.com/inkset/inkwell/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqlInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}

func newUser(username string) store.User {
	return store.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		Role:         "author",
		Status:       "active",
		FirstName:    "Test",
		LastName:     "User",
		CreatedAt:    time.Now(),
	}
}

func TestUserUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "users-unique")
	defer cleanup()

	_, err := st.CreateUser(ctx, newUser("alice"))
	require.NoError(t, err)

	// the constraint fires even without the application-level pre-check
	_, err = st.CreateUser(ctx, newUser("alice"))
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	dup := newUser("alice2")
	dup.Email = "alice@example.com"
	_, err = st.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrEmailTaken)
}

func TestFindActiveByLogin(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "users-find")
	defer cleanup()

	id, err := st.CreateUser(ctx, newUser("bob"))
	require.NoError(t, err)

	byName, err := st.FindActiveByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	byEmail, err := st.FindActiveByLogin(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	_, err = st.FindActiveByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.UpdateUserStatus(ctx, id, "banned")
	require.NoError(t, err)
	_, err = st.FindActiveByLogin(ctx, "bob")
	assert.ErrorIs(t, err, store.ErrNotFound, "banned accounts are invisible to login")
}

func TestUpdateUserFieldReturnsOldValue(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "users-update")
	defer cleanup()

	id, err := st.CreateUser(ctx, newUser("carol"))
	require.NoError(t, err)

	old, err := st.UpdateUserRole(ctx, id, "editor")
	require.NoError(t, err)
	assert.Equal(t, "author", old)

	old, err = st.UpdateUserStatus(ctx, id, "inactive")
	require.NoError(t, err)
	assert.Equal(t, "active", old)

	_, err = st.UpdateUserRole(ctx, 99999, "editor")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordFailedLoginAccumulates(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "attempts")
	defer cleanup()

	_, err := st.GetLoginAttempt(ctx, "mallory")
	require.ErrorIs(t, err, store.ErrNotFound)

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.RecordFailedLogin(ctx, "mallory", t0.Add(time.Duration(i)*time.Second)))
	}

	a, err := st.GetLoginAttempt(ctx, "mallory")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Attempts)
	assert.Equal(t, t0.Add(2*time.Second).Unix(), a.LastAttempt.Unix())

	require.NoError(t, st.ClearLoginAttempts(ctx, "mallory"))
	_, err = st.GetLoginAttempt(ctx, "mallory")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "posts")
	defer cleanup()

	authorID, err := st.CreateUser(ctx, newUser("dave"))
	require.NoError(t, err)

	now := time.Now()
	id, err := st.CreatePost(ctx, store.Post{
		Title: "First light", Content: "Hello from the new platform.",
		AuthorID: authorID, IsPublished: true, CreatedAt: now,
	})
	require.NoError(t, err)

	post, err := st.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "First light", post.Title)
	assert.Equal(t, "dave", post.AuthorName)
	assert.True(t, post.IsPublished)

	require.NoError(t, st.UpdatePost(ctx, id, "First light, revised", post.Content, false, now.Add(time.Minute)))
	post, err = st.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "First light, revised", post.Title)
	assert.False(t, post.IsPublished)

	require.NoError(t, st.DeletePost(ctx, id))
	_, err = st.GetPost(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeletePost(ctx, id), store.ErrNotFound)
	assert.ErrorIs(t, st.UpdatePost(ctx, id, "x", "y", true, now), store.ErrNotFound)
}

func TestListPublishedPaginationAndSearch(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "posts-list")
	defer cleanup()

	authorID, err := st.CreateUser(ctx, newUser("erin"))
	require.NoError(t, err)

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	titles := []string{"Go patterns", "Go concurrency", "Cooking rice", "Draft thoughts"}
	for i, title := range titles {
		published := title != "Draft thoughts"
		_, err := st.CreatePost(ctx, store.Post{
			Title: title, Content: "Body of " + title,
			AuthorID: authorID, IsPublished: published,
			CreatedAt: t0.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	n, err := st.CountPublished(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "drafts are not published")

	// newest first
	page, err := st.ListPublished(ctx, "", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Cooking rice", page[0].Title)
	assert.Equal(t, "Go concurrency", page[1].Title)

	page, err = st.ListPublished(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Go patterns", page[0].Title)

	// search matches title or content, still skipping drafts
	page, err = st.ListPublished(ctx, "Go", 10, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	n, err = st.CountPublished(ctx, "Go")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err = st.ListPublished(ctx, "Draft", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestListByAuthor(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "posts-author")
	defer cleanup()

	a, err := st.CreateUser(ctx, newUser("frank"))
	require.NoError(t, err)
	b, err := st.CreateUser(ctx, newUser("grace"))
	require.NoError(t, err)

	now := time.Now()
	_, err = st.CreatePost(ctx, store.Post{Title: "Mine", Content: "by frank", AuthorID: a, IsPublished: true, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.CreatePost(ctx, store.Post{Title: "My draft", Content: "by frank", AuthorID: a, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.CreatePost(ctx, store.Post{Title: "Theirs", Content: "by grace", AuthorID: b, IsPublished: true, CreatedAt: now})
	require.NoError(t, err)

	posts, err := st.ListByAuthor(ctx, a)
	require.NoError(t, err)
	assert.Len(t, posts, 2, "an author sees their drafts too")
	for _, p := range posts {
		assert.Equal(t, a, p.AuthorID)
	}
}

func TestAuditEntries(t *testing.T) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, "audit")
	defer cleanup()

	id, err := st.CreateUser(ctx, newUser("henry"))
	require.NoError(t, err)

	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"login", "logout", "login"} {
		err := st.InsertAuditEntry(ctx, store.AuditEntry{
			UserID:    sqlInt64(id),
			Action:    action,
			IPAddress: "127.0.0.1",
			UserAgent: "test-agent",
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	recent, err := st.ListRecentAuditEntries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "login", recent[0].Action)
	assert.Equal(t, "henry", recent[0].Username.String)

	n, err := st.CountAuditEntries(ctx, "login")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
