package database

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// PebbleDB keeps records in a pebble store on disk
type PebbleDB struct {
	db *pebble.DB
}

// NewPebbleDB opens (or creates) a pebble store in dir
func NewPebbleDB(dir string) (*PebbleDB, error) {
	if dir == "" {
		return nil, errors.New("pebble: data directory is required")
	}
	return openPebble(dir, &pebble.Options{})
}

// NewMemPebbleDB opens a pebble store backed by an in-memory filesystem
func NewMemPebbleDB() (*PebbleDB, error) {
	return openPebble("", &pebble.Options{FS: vfs.NewMem()})
}

func openPebble(dir string, opts *pebble.Options) (*PebbleDB, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open %q: %w", dir, err)
	}
	return &PebbleDB{db: db}, nil
}

func (p *PebbleDB) Get(key string) ([]byte, error) {
	if p.db == nil {
		return nil, ErrClosed
	}
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (p *PebbleDB) Set(key string, value []byte) error {
	if p.db == nil {
		return ErrClosed
	}
	return p.db.Set([]byte(key), value, pebble.Sync)
}

func (p *PebbleDB) Remove(key string) error {
	if p.db == nil {
		return ErrClosed
	}
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *PebbleDB) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
