/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package bolt

import (
	"bytes"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/storagemodels"
	bbolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/chacha20poly1305"
)

func init() {
	datastore.RegisterDriver(storagemodels.DriverBolt, datastore.DriverFunc(Open))
}

const (
	// metaBucket holds the database settings. Tables starting with the
	// reserved prefix cannot be used by models.
	metaBucket     = "__modelstore"
	reservedPrefix = "__"

	schemaVersionKey = "schema_version"
	keyCheckKey      = "key_check"

	seqLen = 8
)

var (
	ErrStoreClosed     = errors.New("bolt: store closed")
	ErrReservedTable   = errors.New("bolt: table name is reserved")
	ErrSchemaMismatch  = errors.New("bolt: schema version mismatch")
	ErrEncryptionKey   = errors.New("bolt: encryption key does not match database")
	ErrCorruptedRecord = errors.New("bolt: corrupted record")
)

var (
	plainKeyCheck     = []byte("plain")
	keyCheckPlaintext = []byte("modelstore")
	openTimeout       = 1 * time.Second
)

// Store is a backend on one bbolt file.
type Store struct {
	db   *bbolt.DB
	path string
	aead cipher.AEAD
}

var _ datastore.Backend = (*Store)(nil)

// Open opens or creates the database file at cfg.Path(). The schema version
// and the encryption key are recorded on creation and verified afterwards.
// A file locked by another process fails after a short timeout.
func Open(ctx context.Context, cfg storagemodels.Configuration) (datastore.Backend, error) {
	path := cfg.Path()
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("bolt: configuration has no path")
	}

	var aead cipher.AEAD
	if key := cfg.EncryptionKey(); key != nil {
		var err error
		if aead, err = chacha20poly1305.NewX(key); err != nil {
			return nil, errors.Wrap(err, "creating cipher")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "open file %s", path)
	}

	s := &Store{db: db, path: path, aead: aead}
	if err := s.initialize(cfg.SchemaVersion()); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("opened bolt database {{path}}", "path", path, "encrypted", aead != nil)
	return s, nil
}

func (s *Store) initialize(schemaVersion uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return errors.Wrapf(err, "creating bucket: %s", metaBucket)
		}

		if v := meta.Get([]byte(schemaVersionKey)); v == nil {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, schemaVersion)
			if err := meta.Put([]byte(schemaVersionKey), buf); err != nil {
				return errors.Wrap(err, "storing schema version")
			}
		} else if len(v) != 8 {
			return errors.Wrap(ErrCorruptedRecord, "schema version")
		} else if stored := binary.BigEndian.Uint64(v); stored != schemaVersion {
			return errors.Wrapf(ErrSchemaMismatch, "database has %d, configuration expects %d", stored, schemaVersion)
		}

		check := meta.Get([]byte(keyCheckKey))
		if check == nil {
			value := plainKeyCheck
			if s.aead != nil {
				if value, err = s.seal(keyCheckPlaintext, []byte(keyCheckKey)); err != nil {
					return err
				}
			}
			return errors.Wrap(meta.Put([]byte(keyCheckKey), value), "storing key check")
		}

		switch {
		case bytes.Equal(check, plainKeyCheck):
			if s.aead != nil {
				return errors.Wrap(ErrEncryptionKey, "database is not encrypted")
			}
		case s.aead == nil:
			return errors.Wrap(ErrEncryptionKey, "database is encrypted")
		default:
			plain, err := s.open(check, []byte(keyCheckKey))
			if err != nil || !bytes.Equal(plain, keyCheckPlaintext) {
				return ErrEncryptionKey
			}
		}
		return nil
	})
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) seal(plain, additional []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}
	return s.aead.Seal(nonce, nonce, plain, additional), nil
}

func (s *Store) open(sealed, additional []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCorruptedRecord
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], additional)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting record")
	}
	return plain, nil
}

func additionalData(table, key string) []byte {
	return []byte(table + "/" + key)
}

func (s *Store) encode(table, key string, seq uint64, data []byte) ([]byte, error) {
	payload := data
	if s.aead != nil {
		var err error
		if payload, err = s.seal(data, additionalData(table, key)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, seqLen, seqLen+len(payload))
	binary.BigEndian.PutUint64(buf, seq)
	return append(buf, payload...), nil
}

func (s *Store) decode(table string, key, value []byte) (datastore.Record, error) {
	if len(value) < seqLen {
		return datastore.Record{}, errors.Wrapf(ErrCorruptedRecord, "%s/%s", table, key)
	}
	rec := datastore.Record{
		Key: string(key),
		Seq: binary.BigEndian.Uint64(value[:seqLen]),
	}
	if s.aead != nil {
		plain, err := s.open(value[seqLen:], additionalData(table, string(key)))
		if err != nil {
			return datastore.Record{}, errors.Wrapf(err, "%s/%s", table, key)
		}
		rec.Data = plain
	} else {
		// bbolt values are only valid during the transaction
		rec.Data = append([]byte(nil), value[seqLen:]...)
	}
	return rec, nil
}

func checkTable(table string) error {
	if table == "" {
		return errors.New("bolt: empty table name")
	}
	if strings.HasPrefix(table, reservedPrefix) {
		return errors.Wrap(ErrReservedTable, table)
	}
	return nil
}

// Scan returns all records of table ordered by their sequence number.
func (s *Store) Scan(ctx context.Context, table string) ([]datastore.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []datastore.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			rec, err := s.decode(table, k, v)
			if err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap(err, "scanning %s", table)
	}
	datastore.SortBySeq(out)
	return out, nil
}

// Get retrieves the record stored under key.
func (s *Store) Get(ctx context.Context, table, key string) (datastore.Record, bool, error) {
	if err := checkTable(table); err != nil {
		return datastore.Record{}, false, err
	}

	var (
		rec   datastore.Record
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		var err error
		rec, err = s.decode(table, []byte(key), v)
		found = err == nil
		return err
	})
	if err != nil {
		return datastore.Record{}, false, s.wrap(err, "reading %s/%s", table, key)
	}
	return rec, found, nil
}

type tx struct {
	store *Store
	btx   *bbolt.Tx
}

func (t *tx) Put(table, key string, data []byte) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if key == "" {
		return errors.New("bolt: empty key")
	}
	b, err := t.btx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return errors.Wrapf(err, "creating bucket: %s", table)
	}

	var seq uint64
	if old := b.Get([]byte(key)); len(old) >= seqLen {
		seq = binary.BigEndian.Uint64(old[:seqLen])
	} else if seq, err = b.NextSequence(); err != nil {
		return errors.Wrap(err, "allocating sequence")
	}

	value, err := t.store.encode(table, key, seq, data)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.Put([]byte(key), value), "putting %s/%s", table, key)
}

func (t *tx) Delete(table, key string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return nil
	}
	return errors.Wrapf(b.Delete([]byte(key)), "deleting %s/%s", table, key)
}

// Update runs fn inside one bbolt write transaction. bbolt rolls back when
// fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(datastore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&tx{store: s, btx: btx})
	})
	return s.wrap(err, "update")
}

// Close closes the database file.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "closing store")
}

func (s *Store) wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrStoreClosed
	}
	return errors.Wrapf(err, format, args...)
}
