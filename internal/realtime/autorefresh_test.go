package realtime

import (
	"sync/atomic"
	"testing"
	"time"

	"go_crm/internal/event"
)

const testDebounce = 30 * time.Millisecond

func pushEvent(c *Client, project, table, eventType string) {
	c.dispatchDatabaseEvent(event.DatabaseEvent{
		ProjectID: project,
		TableName: table,
		Type:      eventType,
	})
}

func TestAutoRefresher_BurstCollapsesToOneRefetch(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "companies", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))
	defer a.Stop()

	// A burst well inside the debounce window.
	for i := 0; i < 5; i++ {
		pushEvent(c, "p1", "companies", event.TypeUpdate)
		time.Sleep(2 * time.Millisecond)
	}

	// Not yet: the window is measured from the last event.
	if got := atomic.LoadInt32(&refetches); got != 0 {
		t.Fatalf("Refetch fired before the quiet window elapsed (%d)", got)
	}

	time.Sleep(4 * testDebounce)
	if got := atomic.LoadInt32(&refetches); got != 1 {
		t.Errorf("Expected exactly 1 refetch for the burst, got %d", got)
	}
}

func TestAutoRefresher_SeparateBurstsFireSeparately(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "invoices", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))
	defer a.Stop()

	pushEvent(c, "p1", "invoices", event.TypeInsert)
	time.Sleep(4 * testDebounce)
	pushEvent(c, "p1", "invoices", event.TypeInsert)
	time.Sleep(4 * testDebounce)

	if got := atomic.LoadInt32(&refetches); got != 2 {
		t.Errorf("Expected 2 refetches for 2 quiet-separated events, got %d", got)
	}
}

func TestAutoRefresher_TableFilter(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "companies", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))
	defer a.Stop()

	// Event for a different table must not trigger a refetch.
	pushEvent(c, "p1", "items", event.TypeInsert)
	time.Sleep(4 * testDebounce)

	if got := atomic.LoadInt32(&refetches); got != 0 {
		t.Errorf("Refetch fired for a filtered-out table (%d)", got)
	}
}

func TestAutoRefresher_ProjectFilter(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))
	defer a.Stop()

	pushEvent(c, "p2", "companies", event.TypeInsert)
	time.Sleep(4 * testDebounce)

	if got := atomic.LoadInt32(&refetches); got != 0 {
		t.Errorf("Refetch fired for another project's event (%d)", got)
	}
}

func TestAutoRefresher_UnfilteredTableSeesAllTables(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))
	defer a.Stop()

	pushEvent(c, "p1", "items", event.TypeInsert)
	time.Sleep(4 * testDebounce)

	if got := atomic.LoadInt32(&refetches); got != 1 {
		t.Errorf("Expected unfiltered refresher to fire, got %d", got)
	}
}

func TestAutoRefresher_EventTypeFilter(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "invoices", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce), WithEventTypes(event.TypeDelete))
	defer a.Stop()

	pushEvent(c, "p1", "invoices", event.TypeInsert)
	pushEvent(c, "p1", "invoices", event.TypeUpdate)
	time.Sleep(4 * testDebounce)
	if got := atomic.LoadInt32(&refetches); got != 0 {
		t.Fatalf("Refetch fired for filtered-out event types (%d)", got)
	}

	pushEvent(c, "p1", "invoices", event.TypeDelete)
	time.Sleep(4 * testDebounce)
	if got := atomic.LoadInt32(&refetches); got != 1 {
		t.Errorf("Expected refetch for delete event, got %d", got)
	}
}

func TestAutoRefresher_StopCancelsPendingRefetch(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "companies", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))

	pushEvent(c, "p1", "companies", event.TypeUpdate)

	// Tear down mid-debounce; the scheduled refetch must never fire.
	a.Stop()
	time.Sleep(4 * testDebounce)

	if got := atomic.LoadInt32(&refetches); got != 0 {
		t.Errorf("Refetch fired after Stop (%d)", got)
	}
}

func TestAutoRefresher_StopWaitsForInFlightRefetch(t *testing.T) {
	c := newIdleClient()

	started := make(chan struct{})
	release := make(chan struct{})
	a := NewAutoRefresher(c, "p1", "companies", func() {
		close(started)
		<-release
	}, WithDebounce(time.Millisecond))

	pushEvent(c, "p1", "companies", event.TypeUpdate)
	<-started

	// Stop must block until the running refetch finishes.
	stopped := make(chan struct{})
	go func() {
		a.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a refetch was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the refetch finished")
	}
}

func TestAutoRefresher_StopReleasesRoomReference(t *testing.T) {
	c := newIdleClient()

	a := NewAutoRefresher(c, "p1", "", func() {}, WithDebounce(testDebounce))
	b := NewAutoRefresher(c, "p1", "", func() {}, WithDebounce(testDebounce))

	if got := c.RoomRefCount("p1"); got != 2 {
		t.Fatalf("Expected refcount 2 with two refreshers, got %d", got)
	}

	a.Stop()
	if got := c.RoomRefCount("p1"); got != 1 {
		t.Errorf("Expected refcount 1 after one Stop, got %d", got)
	}

	b.Stop()
	if got := c.RoomRefCount("p1"); got != 0 {
		t.Errorf("Expected refcount 0 after both Stops, got %d", got)
	}

	// Stop is idempotent.
	a.Stop()
	if got := c.RoomRefCount("p1"); got != 0 {
		t.Errorf("Refcount went negative or revived: %d", got)
	}
}

func TestAutoRefresher_EventsAfterStopIgnored(t *testing.T) {
	c := newIdleClient()

	var refetches int32
	a := NewAutoRefresher(c, "p1", "", func() { atomic.AddInt32(&refetches, 1) },
		WithDebounce(testDebounce))
	a.Stop()

	pushEvent(c, "p1", "companies", event.TypeInsert)
	time.Sleep(4 * testDebounce)

	if got := atomic.LoadInt32(&refetches); got != 0 {
		t.Errorf("Stopped refresher fired (%d)", got)
	}
}
