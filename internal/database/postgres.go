package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// sqlDB stores records as rows of a two column table. The dialect
// differs only in placeholders and the upsert statement.
type sqlDB struct {
	*sql.DB
	getQuery    string
	upsertQuery string
	deleteQuery string
}

// PostgresDB keeps records in the kv_store table of a PostgreSQL database
type PostgresDB struct {
	sqlDB
}

const postgresSchema = `CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func NewPostgresDB(connStr string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return &PostgresDB{sqlDB{
		DB:       db,
		getQuery: "SELECT value FROM kv_store WHERE key = $1",
		upsertQuery: `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		deleteQuery: "DELETE FROM kv_store WHERE key = $1",
	}}, nil
}

func (db *sqlDB) Get(key string) ([]byte, error) {
	var value string
	err := db.QueryRow(db.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return []byte(value), nil
}

func (db *sqlDB) Set(key string, value []byte) error {
	if _, err := db.Exec(db.upsertQuery, key, string(value)); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (db *sqlDB) Remove(key string) error {
	if _, err := db.Exec(db.deleteQuery, key); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

func (db *sqlDB) Close() error {
	return db.DB.Close()
}
