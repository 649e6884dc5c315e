package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

const bucketName = "products"

// Bolt is the durable catalog store: the in-memory arena checkpointed to a
// single-file BoltDB bucket. Keys are the 8-byte big-endian identifiers, so
// a cursor walk yields products in catalog order and the arena can be
// rebuilt on startup. The checkpoint write happens before the in-memory
// commit, keeping mutations all-or-nothing.
type Bolt struct {
	mem *Memory
	db  *bolt.DB
}

var _ ledger.Repository = (*Bolt)(nil)

// OpenBolt opens (or creates) the database at path, ensures the products
// bucket exists and loads the catalog into memory.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	s := &Bolt{mem: NewMemory(), db: db}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			var p model.Product
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			return s.mem.insert(&p)
		})
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) Create(name string, quantity int64, createdAt time.Time) (*model.Product, error) {
	p, err := s.mem.Create(name, quantity, createdAt)
	if err != nil {
		return nil, err
	}
	if err := s.put(p); err != nil {
		s.mem.removeLast(p.ID)
		return nil, err
	}
	return p, nil
}

func (s *Bolt) Update(id int, fn func(*model.Product)) (*model.Product, error) {
	// Prepare the next state on a copy, checkpoint it, then commit. Readers
	// see the old record until the swap; a failed write leaves the arena
	// untouched.
	p, err := s.mem.GetByID(id)
	if err != nil {
		return nil, err
	}
	fn(p)
	if err := s.put(p); err != nil {
		return nil, err
	}
	if err := s.mem.swap(p); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (s *Bolt) GetByID(id int) (*model.Product, error) { return s.mem.GetByID(id) }

func (s *Bolt) GetByName(name string) (*model.Product, error) { return s.mem.GetByName(name) }

func (s *Bolt) ListAvailable() ([]string, error) { return s.mem.ListAvailable() }

func (s *Bolt) List() ([]model.Product, error) { return s.mem.List() }

func (s *Bolt) Len() int { return s.mem.Len() }

func (s *Bolt) put(p *model.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put(itob(p.ID), data)
	})
}

func itob(id int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
