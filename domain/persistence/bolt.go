package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps conversations as JSON values keyed by id in one bucket.
type BoltStore struct {
	db  *bolt.DB
	log *logrus.Entry
}

func OpenBoltStore(path string, log *logrus.Entry) (*BoltStore, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(TableName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s bucket: %w", TableName, err)
	}
	return &BoltStore{db: db, log: log.WithField("component", "store.bolt")}, nil
}

func (s *BoltStore) Put(_ context.Context, c *Conversation) error {
	if c.ID == "" {
		return ErrMissingID
	}
	value, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(TableName))
		if b.Get([]byte(c.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		return b.Put([]byte(c.ID), value)
	})
	if err != nil {
		return err
	}
	s.log.WithField("id", c.ID).Debug("conversation stored")
	return nil
}

func (s *BoltStore) Get(_ context.Context, id string) (*Conversation, error) {
	var c *Conversation
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(TableName)).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("conversation %s not found", id)
		}
		c = new(Conversation)
		return json.Unmarshal(v, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Count reports how many conversations the bucket holds.
func (s *BoltStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(TableName)).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
