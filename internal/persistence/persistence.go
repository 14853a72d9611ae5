package persistence

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/markusressel/pace2go/internal/store"
	"github.com/markusressel/pace2go/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketState   = "state"
	BucketHistory = "history"

	keyCurrentState = "current"
)

// Persistence stores device snapshots between restarts
type Persistence interface {
	Init() error

	LoadState() (store.Snapshot, error)
	SaveState(snapshot store.Snapshot) error
	DeleteState() error

	AppendHistory(snapshot store.Snapshot, maxSize int) error
	LoadHistory() ([]store.Snapshot, error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveState saves the given snapshot as the current device state
func (p persistence) SaveState(snapshot store.Snapshot) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketState))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(keyCurrentState), data)
	})
}

// LoadState loads the last saved device state. It returns os.ErrNotExist
// if nothing was saved yet.
func (p persistence) LoadState() (store.Snapshot, error) {
	db, err := p.openPersistence()
	if err != nil {
		return store.Snapshot{}, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var snapshot store.Snapshot
	found := false
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketState))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(keyCurrentState))
		if v == nil {
			return nil
		}

		err := json.Unmarshal(v, &snapshot)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved device state: %v", err)
			snapshot = store.Snapshot{}
			// returning an error here would roll back the delete
			err := b.Delete([]byte(keyCurrentState))
			if err != nil {
				ui.Error("Unable to delete corrupt device state: %v", err)
			}
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return store.Snapshot{}, err
	}
	if !found {
		return store.Snapshot{}, os.ErrNotExist
	}
	return snapshot, nil
}

func (p persistence) DeleteState() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketState))
		if b == nil {
			// no state bucket yet
			return nil
		}
		return b.Delete([]byte(keyCurrentState))
	})
}

// AppendHistory appends snapshot to the history and drops the oldest
// entries beyond maxSize. A maxSize <= 0 disables the history.
func (p persistence) AppendHistory(snapshot store.Snapshot, maxSize int) error {
	if maxSize <= 0 {
		return nil
	}

	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketHistory))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		err = b.Put(sequenceKey(seq), data)
		if err != nil {
			return err
		}

		// keys are big endian sequence numbers, so the cursor starts at the oldest entry
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte{}, k...))
		}
		for i := 0; i < len(keys)-maxSize; i++ {
			if err := b.Delete(keys[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadHistory returns all history entries, oldest first
func (p persistence) LoadHistory() ([]store.Snapshot, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var result []store.Snapshot
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketHistory))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var snapshot store.Snapshot
			if err := json.Unmarshal(v, &snapshot); err != nil {
				ui.Warning("Skipping unreadable history entry %d: %v", binary.BigEndian.Uint64(k), err)
				return nil
			}
			result = append(result, snapshot)
			return nil
		})
	})
	return result, err
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
