package database

// Putter wraps the database write operation.
type Putter interface {
	Put(key []byte, value []byte) error
}

// Deleter wraps the database delete operation.
type Deleter interface {
	Delete(key []byte) error
}

// Database is a key/value store.
type Database interface {
	Putter
	Deleter
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Iterate(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}
