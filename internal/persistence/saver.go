package persistence

import (
	"time"

	"github.com/markusressel/pace2go/internal/store"
)

// StateSaver is a publisher sink that writes the device state to the
// database at most once per rate. It must be registered as a periodic sink
// so a change that arrives while throttled is written on a later tick.
type StateSaver struct {
	persistence  Persistence
	rate         time.Duration
	historySize  int
	lastSave     time.Time
	lastRevision uint64
	now          func() time.Time
}

func NewStateSaver(p Persistence, rate time.Duration, historySize int) *StateSaver {
	return &StateSaver{
		persistence: p,
		rate:        rate,
		historySize: historySize,
		now:         time.Now,
	}
}

func (s *StateSaver) Name() string {
	return "persistence"
}

func (s *StateSaver) Send(snapshot store.Snapshot) error {
	if snapshot.Revision <= s.lastRevision {
		return nil
	}
	now := s.now()
	if !s.lastSave.IsZero() && now.Sub(s.lastSave) < s.rate {
		return nil
	}

	s.lastSave = now
	s.lastRevision = snapshot.Revision
	if err := s.persistence.SaveState(snapshot); err != nil {
		return err
	}
	return s.persistence.AppendHistory(snapshot, s.historySize)
}
