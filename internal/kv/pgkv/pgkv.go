// Package pgkv implements kv.Store on PostgreSQL. One table holds every
// pair; Update takes a row lock (SELECT ... FOR UPDATE) inside a
// transaction so concurrent read-modify-writes of the same key serialize.
package pgkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/digivault/digivault/internal/dbx"
	"github.com/digivault/digivault/internal/kv"
	"github.com/digivault/digivault/internal/kv/pgkv/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type Store struct {
	db *sql.DB
}

// New opens the database, runs migrations, and returns a ready Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.UpContext(ctx, s.db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `SELECT v FROM kv_pairs WHERE k=$1`, key)

	var v []byte
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select pair: %w", err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_pairs (k, v) VALUES ($1, $2)
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to upsert pair: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_pairs WHERE k=$1`, key); err != nil {
		return fmt.Errorf("failed to delete pair: %w", err)
	}
	return nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k FROM kv_pairs WHERE starts_with(k, $1) ORDER BY k`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to select keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) Update(ctx context.Context, key string, fn kv.UpdateFunc) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT v FROM kv_pairs WHERE k=$1 FOR UPDATE`, key)

		var cur []byte
		if err := row.Scan(&cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return kv.ErrNotFound
			}
			return fmt.Errorf("failed to lock pair: %w", err)
		}

		next, err := fn(cur)
		if err != nil {
			if errors.Is(err, kv.ErrRemove) {
				_, derr := tx.ExecContext(ctx, `DELETE FROM kv_pairs WHERE k=$1`, key)
				return derr
			}
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE kv_pairs SET v=$2, updated_at=now() WHERE k=$1`, key, next)
		return err
	})
}
