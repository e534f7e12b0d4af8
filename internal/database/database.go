package database

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by KV.Get when the key holds no value
	ErrNotFound = errors.New("key not found")
	// ErrClosed is returned by operations on a closed store
	ErrClosed = errors.New("store closed")
)

// KV is the raw persistent key-value storage the records live in.
// Values are opaque bytes; Records handles encoding.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}

type DatabaseType string

const (
	Pebble     DatabaseType = "pebble"
	PostgreSQL DatabaseType = "postgres"
	SQLite     DatabaseType = "sqlite"
	Memory     DatabaseType = "memory"
)

// NewDatabase opens the backend named by dbType. For pebble the
// connection string is a directory, for sqlite a file path.
func NewDatabase(dbType DatabaseType, connStr string) (KV, error) {
	var (
		kv  KV
		err error
	)

	// kv stays a nil interface when the open fails
	switch dbType {
	case Pebble:
		var db *PebbleDB
		if db, err = NewPebbleDB(connStr); err == nil {
			kv = db
		}
	case PostgreSQL:
		var db *PostgresDB
		if db, err = NewPostgresDB(connStr); err == nil {
			kv = db
		}
	case SQLite:
		var db *SQLiteDB
		if db, err = NewSQLiteDB(connStr); err == nil {
			kv = db
		}
	case Memory:
		kv = NewMemoryDB()
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	if err != nil {
		return nil, err
	}
	return kv, nil
}
