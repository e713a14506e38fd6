// Package sqlitestore backs the todo store with a private in-memory SQLite
// database. It never touches the filesystem: the database disappears with the
// last connection, so its lifetime matches the process like memstore's.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store implements store.Store on SQLite.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open creates a fresh, uniquely named in-memory database and applies the
// schema. Two Stores never share data.
func Open(ctx context.Context) (*Store, error) {
	dsn := fmt.Sprintf("file:priotodo-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: the in-memory database lives as long as it stays open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Add(ctx context.Context, text string, priority int) (model.Item, error) {
	if err := store.Validate(text, priority); err != nil {
		return model.Item{}, err
	}
	text = store.NormalizeText(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return model.Item{}, store.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Item{}, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO todos (text, priority) VALUES (?, ?)`, text, priority)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, fmt.Errorf("commit insert: %w", err)
	}
	return model.Item{ID: int(id), Text: text, Priority: priority}, nil
}

func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, store.ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, text, priority FROM todos`)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Text, &it.Priority); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	store.SortItems(out)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false, store.ErrClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete todo %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) MissingPriorities(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, store.ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT priority FROM todos`)
	if err != nil {
		return nil, fmt.Errorf("query priorities: %w", err)
	}
	defer rows.Close()

	var ps []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan priority: %w", err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate priorities: %w", err)
	}
	return store.Gaps(ps)
}

// Close releases the connection, which discards the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
