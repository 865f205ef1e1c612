// Package store persists locally owned session data by character name.
package store

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-sessionmesh/codec"
	"github.com/spacemeshos/go-sessionmesh/common/types"
	"github.com/spacemeshos/go-sessionmesh/database"
)

//go:generate scalegen -types Record

// ErrNotFound is returned when no record is stored under a name.
var ErrNotFound = errors.New("record not found")

var prefix = []byte("character/")

// Record is what a node keeps about its own character between sessions.
type Record struct {
	Character types.Character
	Houses    []types.House `scale:"max=64"`
}

// Opt configures a Store.
type Opt func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store keeps records in a key/value database.
type Store struct {
	logger *zap.Logger
	db     database.Database
}

// New creates a store on top of db.
func New(db database.Database, opts ...Opt) *Store {
	s := &Store{logger: zap.NewNop(), db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func key(name string) []byte {
	return append(append([]byte{}, prefix...), name...)
}

// Load returns the record stored under name.
func (s *Store) Load(name string) (*Record, error) {
	buf, err := s.db.Get(key(name))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	var rec Record
	if err := codec.Decode(buf, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return &rec, nil
}

// Save stores rec under the name of its character, replacing the previous one.
func (s *Store) Save(rec *Record) error {
	buf, err := codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.Character.Name, err)
	}
	if err := s.db.Put(key(rec.Character.Name), buf); err != nil {
		return fmt.Errorf("save %s: %w", rec.Character.Name, err)
	}
	s.logger.Debug("saved record",
		zap.Object("character", &rec.Character),
		zap.Int("houses", len(rec.Houses)),
	)
	return nil
}

// Names lists stored names in order.
func (s *Store) Names() ([]string, error) {
	var names []string
	err := s.db.Iterate(prefix, func(k, _ []byte) bool {
		names = append(names, string(k[len(prefix):]))
		return true
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
