package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"blogquery/app/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS posts (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT    NOT NULL UNIQUE,
	document TEXT    NOT NULL
)`

// SQLitePostRepository implements PostStore with one JSON document per row.
// Rows come back in insertion order.
type SQLitePostRepository struct {
	db    *sql.DB
	locks keyedMutex
}

// OpenSQLite opens a SQLite store at path. ":memory:" opens a private
// in-memory database.
func OpenSQLite(path string) (*SQLitePostRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared and avoids
	// SQLITE_BUSY between our own writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create posts table: %w", err)
	}
	return &SQLitePostRepository{db: db}, nil
}

// List returns every post in insertion order.
func (r *SQLitePostRepository) List(ctx context.Context) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT document FROM posts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		var post models.Post
		if err := unmarshalEntity([]byte(doc), &post); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func (r *SQLitePostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	return getSQLitePost(ctx, r.db, id)
}

func (r *SQLitePostRepository) Create(ctx context.Context, post *models.Post) error {
	unlock := r.locks.Lock(post.ID)
	defer unlock()

	data, err := marshalEntity(post)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, document) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
		post.ID, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *SQLitePostRepository) Replace(ctx context.Context, post *models.Post) error {
	unlock := r.locks.Lock(post.ID)
	defer unlock()

	return writeSQLitePost(ctx, r.db, post)
}

// Update runs fn between a SELECT and an UPDATE in one transaction.
func (r *SQLitePostRepository) Update(ctx context.Context, id string, fn func(post *models.Post) error) error {
	unlock := r.locks.Lock(id)
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	post, err := getSQLitePost(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := fn(post); err != nil {
		return err
	}
	post.ID = id
	if err := writeSQLitePost(ctx, tx, post); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLitePostRepository) Delete(ctx context.Context, id string) (bool, error) {
	unlock := r.locks.Lock(id)
	defer unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return n > 0, nil
}

func (r *SQLitePostRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying SQLite database.
func (r *SQLitePostRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getSQLitePost(ctx context.Context, q queryer, id string) (*models.Post, error) {
	var doc string
	err := q.QueryRowContext(ctx, `SELECT document FROM posts WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %q: %w", id, err)
	}
	var post models.Post
	if err := unmarshalEntity([]byte(doc), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func writeSQLitePost(ctx context.Context, q queryer, post *models.Post) error {
	data, err := marshalEntity(post)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `UPDATE posts SET document = ? WHERE id = ?`, string(data), post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BackupTo writes a consistent copy of the database to dest, which must not
// exist yet.
func (r *SQLitePostRepository) BackupTo(ctx context.Context, dest string) error {
	if _, err := r.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return fmt.Errorf("backup sqlite db: %w", err)
	}
	return nil
}
