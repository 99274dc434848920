package assets

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const selectAsset = `SELECT id, name, type, COALESCE(text_content, '') FROM assets WHERE id = $1`

// PostgresStore reads assets from the shared record storage.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	var r Record
	err := s.db.QueryRowContext(ctx, selectAsset, id).Scan(&r.ID, &r.Name, &r.Kind, &r.TextContent)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
