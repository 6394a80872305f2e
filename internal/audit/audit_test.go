package audit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndByCorrelation(t *testing.T) {
	log := NewLog(0)

	log.Record(Entry{CorrelationID: "c1", Operation: "AddEntity/E1", Outcome: OutcomeApplied})
	log.Record(Entry{CorrelationID: "c1", Operation: "RemoveArtifact/A1", Outcome: OutcomeFailed, Detail: "timeout"})
	log.Record(Entry{CorrelationID: "c2", Operation: "AddEntity/E2", Outcome: OutcomeBlocked})

	entries := log.ByCorrelation("c1")
	require.Len(t, entries, 2)
	assert.Equal(t, "AddEntity/E1", entries[0].Operation)
	assert.Equal(t, OutcomeFailed, entries[1].Outcome)
	assert.False(t, entries[0].Timestamp.IsZero(), "Record must stamp the time")

	assert.Empty(t, log.ByCorrelation("unknown"))
}

func TestRange(t *testing.T) {
	log := NewLog(0)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		log.Record(Entry{
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
			CorrelationID: "c1",
			Operation:     fmt.Sprintf("op-%d", i),
			Outcome:       OutcomeApplied,
		})
	}

	window := log.Range(base.Add(time.Minute), base.Add(3*time.Minute))
	require.Len(t, window, 2)
	assert.Equal(t, "op-1", window[0].Operation)
	assert.Equal(t, "op-2", window[1].Operation)

	open := log.Range(base.Add(3*time.Minute), time.Time{})
	require.Len(t, open, 2)
	assert.Equal(t, "op-3", open[0].Operation)
}

func TestRetentionDropsOldest(t *testing.T) {
	log := NewLog(3)

	for i := 0; i < 5; i++ {
		log.Record(Entry{CorrelationID: "c1", Operation: fmt.Sprintf("op-%d", i)})
	}

	assert.Equal(t, 3, log.Len())
	recent := log.Recent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "op-2", recent[0].Operation)
	assert.Equal(t, "op-4", recent[2].Operation)
}

func TestRecent(t *testing.T) {
	log := NewLog(0)
	for i := 0; i < 4; i++ {
		log.Record(Entry{Operation: fmt.Sprintf("op-%d", i)})
	}

	recent := log.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "op-2", recent[0].Operation)
	assert.Equal(t, "op-3", recent[1].Operation)
}

func TestConcurrentRecord(t *testing.T) {
	log := NewLog(0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				log.Record(Entry{CorrelationID: fmt.Sprintf("c%d", g), Operation: "op"})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 400, log.Len())
	assert.Len(t, log.ByCorrelation("c3"), 50)
}
