package clips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS clips (
	id         TEXT NOT NULL PRIMARY KEY,
	name       TEXT NOT NULL,
	path       TEXT NOT NULL,
	duration   REAL NOT NULL,
	size       INTEGER NOT NULL,
	parent_id  TEXT NOT NULL DEFAULT '',
	operation  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	CHECK(length(id) > 0 AND length(path) > 0)
);
CREATE INDEX IF NOT EXISTS clips_created_at ON clips (created_at);`

// SQLStore keeps the catalog in a sqlite database
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=3500&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open clip database: %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() (err error) {
	var tx *sql.Tx
	if tx, err = s.db.Begin(); err != nil {
		return fmt.Errorf("migrate clip database: %w", err)
	}
	defer commitUnlessErr(tx, &err)
	if _, err = tx.Exec(schema); err != nil {
		return fmt.Errorf("migrate clip database: %w", err)
	}
	return nil
}

func (s *SQLStore) Add(ctx context.Context, clip *Clip) error {
	if err := prepare(clip); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clips (id, name, path, duration, size, parent_id, operation, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		clip.ID, clip.Name, clip.Path, clip.Duration, clip.Size, clip.ParentID, clip.Operation, clip.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert clip %s: %w", clip.ID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, path, duration, size, parent_id, operation, created_at FROM clips WHERE id = ?", id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get clip %s: %w", id, err)
	}
	return clip, nil
}

func (s *SQLStore) List(ctx context.Context) (clips []*Clip, err error) {
	var rows *sql.Rows
	rows, err = s.db.QueryContext(ctx,
		"SELECT id, name, path, duration, size, parent_id, operation, created_at FROM clips ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	clips = make([]*Clip, 0)
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("list clips: %w", err)
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

func (s *SQLStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clips WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove clip %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClip(row scanner) (*Clip, error) {
	var clip Clip
	var created int64
	if err := row.Scan(&clip.ID, &clip.Name, &clip.Path, &clip.Duration, &clip.Size,
		&clip.ParentID, &clip.Operation, &created); err != nil {
		return nil, err
	}
	clip.CreatedAt = time.Unix(0, created).UTC()
	return &clip, nil
}

func commitUnlessErr(tx *sql.Tx, err *error) {
	if *err == nil {
		*err = tx.Commit()
	}
	if *err != nil {
		tx.Rollback()
	}
}
