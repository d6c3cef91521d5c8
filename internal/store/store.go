package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkset/inkwell/internal/store/migrations"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type (
	// Store wraps the platform database and exposes one typed
	// repository method set per entity. Rows never leave this package
	// as anything other than the structs declared here.
	Store struct {
		db *sql.DB
	}
)

var (
	ErrNotFound      = errors.New("store: record not found")
	ErrUsernameTaken = errors.New("store: username already taken")
	ErrEmailTaken    = errors.New("store: email already taken")
)

func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create directory for %v, cause %w", path, err)
		}
	}
	connstr := fmt.Sprintf("file:%v?_journal=wal&_fk=on&_busy_timeout=5000&mode=rwc", path)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", path, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping database %v, cause %w", path, err)
	}
	return conn, nil
}

// Open opens (creating if needed) the database at path and brings the
// schema up to date.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := openDatabase(ctx, path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: conn}
	if err := s.Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to migrate database %v, cause %w", path, err)
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
