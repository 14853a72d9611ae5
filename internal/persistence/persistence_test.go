package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/store"
	"github.com/stretchr/testify/assert"
	bolt "go.etcd.io/bbolt"
)

func createPersistence(t *testing.T) Persistence {
	p := NewPersistence(filepath.Join(t.TempDir(), "db", "test.db"))
	assert.NoError(t, p.Init())
	return p
}

func createSnapshot(revision uint64) store.Snapshot {
	s := store.New(time.Unix(1700000000, 0).UTC())
	snapshot := s.Snapshot()
	snapshot.Revision = revision
	return snapshot
}

func TestPersistence_LoadState_NotExisting(t *testing.T) {
	// GIVEN
	p := createPersistence(t)

	// WHEN
	_, err := p.LoadState()

	// THEN
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPersistence_SaveAndLoadState(t *testing.T) {
	// GIVEN
	p := createPersistence(t)
	snapshot := createSnapshot(4)
	snapshot.VSensitivity = 0
	snapshot.Mode = pacing.ModeDDI
	snapshot.ModeName = "DDI"
	snapshot.Locked = true

	// WHEN
	err := p.SaveState(snapshot)
	assert.NoError(t, err)
	loaded, err := p.LoadState()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestPersistence_LoadState_CorruptIsDeleted(t *testing.T) {
	// GIVEN
	dbPath := filepath.Join(t.TempDir(), "test.db")
	p := NewPersistence(dbPath)
	assert.NoError(t, p.Init())
	db, err := bolt.Open(dbPath, 0600, nil)
	assert.NoError(t, err)
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketState))
		if err != nil {
			return err
		}
		return b.Put([]byte(keyCurrentState), []byte("{not json"))
	})
	assert.NoError(t, err)
	assert.NoError(t, db.Close())

	// WHEN
	_, err = p.LoadState()

	// THEN
	assert.ErrorIs(t, err, os.ErrNotExist)
	db, err = bolt.Open(dbPath, 0600, nil)
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()
	_ = db.View(func(tx *bolt.Tx) error {
		assert.Nil(t, tx.Bucket([]byte(BucketState)).Get([]byte(keyCurrentState)))
		return nil
	})
}

func TestPersistence_DeleteState(t *testing.T) {
	// GIVEN
	p := createPersistence(t)
	_ = p.SaveState(createSnapshot(1))

	// WHEN
	err := p.DeleteState()
	assert.NoError(t, err)

	// THEN
	_, err = p.LoadState()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPersistence_HistoryIsTrimmed(t *testing.T) {
	// GIVEN
	p := createPersistence(t)

	// WHEN
	for i := 1; i <= 5; i++ {
		assert.NoError(t, p.AppendHistory(createSnapshot(uint64(i)), 3))
	}
	history, err := p.LoadHistory()

	// THEN
	assert.NoError(t, err)
	var revisions []uint64
	for _, entry := range history {
		revisions = append(revisions, entry.Revision)
	}
	assert.Equal(t, []uint64{3, 4, 5}, revisions)
}

func TestPersistence_HistoryDisabled(t *testing.T) {
	// GIVEN
	p := createPersistence(t)

	// WHEN
	err := p.AppendHistory(createSnapshot(1), 0)
	history, loadErr := p.LoadHistory()

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, loadErr)
	assert.Empty(t, history)
}

func TestStateSaver_Throttles(t *testing.T) {
	// GIVEN
	p := createPersistence(t)
	saver := NewStateSaver(p, time.Second, 10)
	now := time.Unix(1700000000, 0)
	saver.now = func() time.Time { return now }

	// WHEN
	assert.NoError(t, saver.Send(createSnapshot(2)))
	now = now.Add(100 * time.Millisecond)
	assert.NoError(t, saver.Send(createSnapshot(3)))

	// THEN
	loaded, _ := p.LoadState()
	assert.Equal(t, uint64(2), loaded.Revision)

	// WHEN the throttle expired
	now = now.Add(time.Second)
	assert.NoError(t, saver.Send(createSnapshot(3)))
	assert.NoError(t, saver.Send(createSnapshot(3)))

	// THEN
	loaded, _ = p.LoadState()
	assert.Equal(t, uint64(3), loaded.Revision)
	history, _ := p.LoadHistory()
	assert.Len(t, history, 2)
}
