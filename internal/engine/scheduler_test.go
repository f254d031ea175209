package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	eng := NewEngine(&mockStore{}, &stubScraper{}, &recordingNotifier{}, WithLogger(quietLogger()))
	s, err := NewScheduler(eng, 30*time.Minute, time.Hour, quietLogger())
	require.NoError(t, err)
	return s
}

func TestNewScheduler_RegistersEntries(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	assert.Len(t, s.Entries(), 2, "check and housekeeping jobs")
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	s.Start()

	done := s.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
