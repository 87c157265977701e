package store

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const recordsName = "records"

var recordsBkt = []byte(recordsName)

// BoltStore keeps records in a single bolt database file. Each record is
// a sub-bucket of the top-level records bucket, keyed by record name.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens (creating if necessary) the database at path. The
// parent directory is created when missing. The database file is locked
// for the lifetime of the store, so only one process may hold it open.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "error creating store dir %s", filepath.Dir(path))
	}

	logrus.Debugf("Opening record store at %s", path)

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening database %s", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recordsBkt); err != nil {
			return errors.Wrapf(err, "error creating records bucket")
		}
		return nil
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logrus.Errorf("Closing database %s: %v", path, closeErr)
		}
		return nil, errors.Wrapf(err, "error creating initial database layout")
	}

	return &BoltStore{db: db, path: path}, nil
}

// Enumerate returns the names of all records starting with prefix, in
// lexical order.
func (s *BoltStore) Enumerate(prefix string) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		top, err := getRecordsBucket(tx)
		if err != nil {
			return err
		}

		pfx := []byte(prefix)
		cursor := top.Cursor()
		for name, _ := cursor.Seek(pfx); name != nil && bytes.HasPrefix(name, pfx); name, _ = cursor.Next() {
			names = append(names, string(name))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// RecordFor returns the record with the given name. The record's bucket
// is created lazily on the first Set, so reading an absent record just
// yields defaults.
func (s *BoltStore) RecordFor(name string) (Record, error) {
	return &boltRecord{db: s.db, name: name}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltRecord struct {
	db   *bolt.DB
	name string
}

func (r *boltRecord) Name() string {
	return r.name
}

func (r *boltRecord) Get(key, def string) string {
	value := def
	err := r.db.View(func(tx *bolt.Tx) error {
		top, err := getRecordsBucket(tx)
		if err != nil {
			return err
		}

		rec := top.Bucket([]byte(r.name))
		if rec == nil {
			return nil
		}
		if v := rec.Get([]byte(key)); v != nil {
			value = string(v)
		}
		return nil
	})
	if err != nil {
		logrus.Errorf("Reading key %q of record %s: %v", key, r.name, err)
		return def
	}
	return value
}

func (r *boltRecord) Set(key, value string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		top, err := getRecordsBucket(tx)
		if err != nil {
			return err
		}

		rec, err := top.CreateBucketIfNotExists([]byte(r.name))
		if err != nil {
			return errors.Wrapf(err, "error creating record bucket %s", r.name)
		}
		if err := rec.Put([]byte(key), []byte(value)); err != nil {
			return errors.Wrapf(err, "error writing key %q of record %s", key, r.name)
		}
		return nil
	})
}

func (r *boltRecord) Contains(key string) bool {
	found := false
	err := r.db.View(func(tx *bolt.Tx) error {
		top, err := getRecordsBucket(tx)
		if err != nil {
			return err
		}

		rec := top.Bucket([]byte(r.name))
		if rec == nil {
			return nil
		}
		found = rec.Get([]byte(key)) != nil
		return nil
	})
	if err != nil {
		logrus.Errorf("Checking key %q of record %s: %v", key, r.name, err)
		return false
	}
	return found
}

func (r *boltRecord) Keys() ([]string, error) {
	var keys []string
	err := r.db.View(func(tx *bolt.Tx) error {
		top, err := getRecordsBucket(tx)
		if err != nil {
			return err
		}

		rec := top.Bucket([]byte(r.name))
		if rec == nil {
			return nil
		}
		return rec.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *boltRecord) Clear() error {
	return r.db.Update(func(tx *bolt.Tx) error {
		top, err := getRecordsBucket(tx)
		if err != nil {
			return err
		}

		if top.Bucket([]byte(r.name)) == nil {
			return nil
		}
		if err := top.DeleteBucket([]byte(r.name)); err != nil {
			return errors.Wrapf(err, "error deleting record bucket %s", r.name)
		}
		return nil
	})
}

func getRecordsBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	bkt := tx.Bucket(recordsBkt)
	if bkt == nil {
		return nil, errors.New("records bucket not found in DB")
	}
	return bkt, nil
}
