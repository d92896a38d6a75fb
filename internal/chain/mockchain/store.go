// Package mockchain is an in-memory, bolt-backed fixture standing in for a
// real blockchain RPC endpoint: exactly the role the distilled system's
// Python reference gave a sqlite-backed MockDatabase, rebuilt here on the
// embedded key-value store the rest of this repository already depends on.
package mockchain

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/boltdb/bolt"
)

var (
	bucketNodes         = []byte("subnet_nodes")
	bucketConsensusData = []byte("consensus_data")
	bucketSubnets       = []byte("subnets")
	bucketBootnodes     = []byte("bootnodes")
	bucketOverwatch     = []byte("overwatch_nodes")
	bucketSlots         = []byte("slots")
	bucketValidators    = []byte("validators")
)

// store is a thin gob-over-bolt codec. It is not exported: callers go
// through Adapter, which is the only thing that needs to know the schema.
type store struct {
	db *bolt.DB
}

func openStore(path string) (*store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketNodes, bucketConsensusData, bucketSubnets, bucketBootnodes, bucketOverwatch, bucketSlots, bucketValidators} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) close() error {
	return s.db.Close()
}

func u64Key(parts ...uint64) []byte {
	buf := new(bytes.Buffer)
	for _, p := range parts {
		_ = binary.Write(buf, binary.BigEndian, p)
	}
	return buf.Bytes()
}

func putGob(tx *bolt.Tx, bucket, key []byte, v any) error {
	b := tx.Bucket(bucket)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", bucket, err)
	}
	return b.Put(key, buf.Bytes())
}

func getGob(tx *bolt.Tx, bucket, key []byte, v any) (bool, error) {
	b := tx.Bucket(bucket)
	raw := b.Get(key)
	if raw == nil {
		return false, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return false, fmt.Errorf("decode %s: %w", bucket, err)
	}
	return true, nil
}

func decodeGobBytes(raw []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func forEach(tx *bolt.Tx, bucket []byte, prefix []byte, fn func(k, v []byte) error) error {
	c := tx.Bucket(bucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}
