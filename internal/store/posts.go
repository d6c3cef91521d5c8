package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type (
	Post struct {
		ID          int64
		Title       string
		Content     string
		AuthorID    int64
		AuthorName  string
		IsPublished bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

func (s *Store) CreatePost(ctx context.Context, p Post) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`insert into posts (title, content, author_id, is_published, created_at, updated_at)
		 values (?, ?, ?, ?, ?, ?)`,
		p.Title, p.Content, p.AuthorID, p.IsPublished, p.CreatedAt, p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("unable to insert post, cause %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("unable to read id of new post, cause %w", err)
	}
	return id, nil
}

const postColumns = `p.id, p.title, p.content, p.author_id, u.username, p.is_published, p.created_at, p.updated_at`

func (s *Store) GetPost(ctx context.Context, id int64) (Post, error) {
	var p Post
	err := s.db.QueryRowContext(ctx,
		`select `+postColumns+` from posts p inner join users u on u.id = p.author_id where p.id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorName, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	} else if err != nil {
		return Post{}, fmt.Errorf("unable to load post %v, cause %w", id, err)
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, id int64, title, content string, published bool, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update posts set title = ?, content = ?, is_published = ?, updated_at = ? where id = ?`,
		title, content, published, at, id)
	if err != nil {
		return fmt.Errorf("unable to update post %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to confirm update of post %v, cause %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from posts where id = ?`, id)
	if err != nil {
		return fmt.Errorf("unable to delete post %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to confirm delete of post %v, cause %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPublished returns one page of published posts, newest first. When
// query is non-empty only posts whose title or content contain it are
// returned.
func (s *Store) ListPublished(ctx context.Context, query string, limit, offset int) ([]Post, error) {
	args := []interface{}{}
	q := `select ` + postColumns + ` from posts p inner join users u on u.id = p.author_id where p.is_published = 1`
	if query != "" {
		q += ` and (p.title like ? or p.content like ?)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	q += ` order by p.created_at desc, p.id desc limit ? offset ?`
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to list published posts, cause %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *Store) CountPublished(ctx context.Context, query string) (int, error) {
	args := []interface{}{}
	q := `select count(1) from posts where is_published = 1`
	if query != "" {
		q += ` and (title like ? or content like ?)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("unable to count published posts, cause %w", err)
	}
	return n, nil
}

func (s *Store) ListByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+postColumns+` from posts p inner join users u on u.id = p.author_id
		 where p.author_id = ? order by p.created_at desc, p.id desc`, authorID)
	if err != nil {
		return nil, fmt.Errorf("unable to list posts of author %v, cause %w", authorID, err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `select count(1) from posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("unable to count posts, cause %w", err)
	}
	return n, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorName, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan post row, cause %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
