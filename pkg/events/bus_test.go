package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusEmitDeliversToSubscriber(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	bus.Emit(Event{Stage: "scan", I: 1, N: 2, Message: "hi"})

	select {
	case e := <-ch:
		assert.Equal(t, "scan", e.Stage)
		assert.Equal(t, 50.0, e.Pct)
		assert.False(t, e.TimestampUTC.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusEmitNonBlockingOnFullSubscriber(t *testing.T) {
	bus := New()
	_, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Emit(Event{Stage: "scan"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber channel")
	}
}

func TestBusDroppedCounts(t *testing.T) {
	bus := New()
	_, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		bus.Emit(Event{Stage: "scan"})
	}

	affected, total := bus.Dropped()
	assert.Equal(t, 1, affected)
	assert.GreaterOrEqual(t, total, 1)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe(4)
	unsubscribe()

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after unsubscribe")
}

func TestTrackerEmitsStageLifecycle(t *testing.T) {
	bus := New()
	ch, unsubscribe := bus.Subscribe(16)
	defer unsubscribe()

	tr := NewTracker(bus)
	tr.SetStage("describe", 2)
	tr.SetProgress(1, "item-a")
	tr.Warn("no_content")
	tr.CompleteStage("")

	var got []Event
	for i := 0; i < 4; i++ {
		got = append(got, <-ch)
	}

	require.Len(t, got, 4)
	assert.Equal(t, SeverityInfo, got[0].Severity)
	assert.Equal(t, "item-a", got[1].CurrentItem)
	assert.Equal(t, SeverityWarn, got[2].Severity)
	last := got[3]
	assert.Equal(t, SeveritySuccess, last.Severity)
	assert.Equal(t, 2, last.I)
	assert.Equal(t, 2, last.N)
	assert.Equal(t, 100.0, last.Pct)
}
