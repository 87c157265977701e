// Package store persists the small key/value records the control plane
// keeps between runs: one record per tracked session plus the global
// hypervisor configuration. Records are named; enumeration by name prefix
// is the only query the callers need.
package store

// Store is a collection of named records.
type Store interface {
	// Enumerate returns the names of all records starting with prefix,
	// in lexical order. A record exists once a value has been set on it.
	Enumerate(prefix string) ([]string, error)
	// RecordFor returns the record with the given name, creating it
	// lazily on first write.
	RecordFor(name string) (Record, error)
	// Close releases the backing resources. The store must not be used
	// afterwards.
	Close() error
}

// Record is a single named bag of key/value pairs.
type Record interface {
	// Name returns the record's name as used with RecordFor.
	Name() string
	// Get returns the value stored under key, or def when the key (or
	// the whole record) is absent.
	Get(key, def string) string
	// Set stores value under key, creating the record if needed.
	Set(key, value string) error
	// Contains reports whether key has been set on this record.
	Contains(key string) bool
	// Keys returns all keys set on this record, in lexical order.
	Keys() ([]string, error)
	// Clear removes the record and all its keys. Clearing a record that
	// was never written is a no-op.
	Clear() error
}
