package storage

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/cmsd2/woot/communication"
)

var opsBucket = []byte("ops")

// OpLog is a durable append-only log of operations. Replaying a log into
// a fresh replica, receive then drain per operation, reconstructs the
// logged sequence, tombstones included; the replica's own site and clock
// are not restored. Append order is preserved but nothing depends on
// it beyond the pool's usual tolerance.
type OpLog struct {
	db *bolt.DB
}

// Open creates or reopens the log at path.
func Open(path string) (*OpLog, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open oplog %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(opsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init oplog %s: %w", path, err)
	}
	return &OpLog{db: db}, nil
}

// Append stores op after everything previously logged.
func (l *OpLog) Append(op communication.Operation) error {
	data, err := communication.Encode(op)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(opsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return b.Put(key[:], data)
	})
}

// Replay visits every logged operation in append order.
func (l *OpLog) Replay(fn func(communication.Operation) error) error {
	return l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(opsBucket).ForEach(func(k, v []byte) error {
			op, err := communication.Decode(v)
			if err != nil {
				return err
			}
			return fn(op)
		})
	})
}

// Len counts the logged operations.
func (l *OpLog) Len() (int, error) {
	n := 0
	err := l.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(opsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (l *OpLog) Close() error {
	return l.db.Close()
}
