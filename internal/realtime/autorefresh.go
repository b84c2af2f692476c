package realtime

import (
	"sync"
	"time"

	"go_crm/internal/event"
)

// DefaultDebounce is the quiet window an AutoRefresher waits for after the
// last qualifying event before firing its refetch.
const DefaultDebounce = 300 * time.Millisecond

type autoRefreshOptions struct {
	debounce   time.Duration
	eventTypes map[string]struct{}
}

// AutoRefreshOption customizes an AutoRefresher.
type AutoRefreshOption func(*autoRefreshOptions)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) AutoRefreshOption {
	return func(o *autoRefreshOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithEventTypes restricts which event types qualify (default: insert,
// update, delete).
func WithEventTypes(types ...string) AutoRefreshOption {
	return func(o *autoRefreshOptions) {
		o.eventTypes = make(map[string]struct{}, len(types))
		for _, t := range types {
			o.eventTypes[t] = struct{}{}
		}
	}
}

// AutoRefresher joins a project room and calls refetch once per burst of
// qualifying database-change events, debounced from the last event in the
// burst (trailing edge). Stop tears everything down; a pending timer never
// fires its refetch after Stop returns.
type AutoRefresher struct {
	client    *Client
	projectID string
	table     string
	refetch   func()
	debounce  time.Duration
	types     map[string]struct{}
	sub       *Subscription

	mu      sync.Mutex
	timer   *time.Timer // at most one pending slot; replaced per event
	stopped bool

	// fireMu is held for the duration of a refetch; Stop acquires it so an
	// in-flight refetch has finished before Stop returns.
	fireMu sync.Mutex
}

// NewAutoRefresher creates and starts an auto-refresh coordinator.
// table == "" subscribes to all tables in the project. refetch runs on a
// timer goroutine; errors and panics inside it are the caller's concern.
func NewAutoRefresher(client *Client, projectID, table string, refetch func(), opts ...AutoRefreshOption) *AutoRefresher {
	o := &autoRefreshOptions{
		debounce: DefaultDebounce,
		eventTypes: map[string]struct{}{
			event.TypeInsert: {},
			event.TypeUpdate: {},
			event.TypeDelete: {},
		},
	}
	for _, opt := range opts {
		opt(o)
	}

	a := &AutoRefresher{
		client:    client,
		projectID: projectID,
		table:     table,
		refetch:   refetch,
		debounce:  o.debounce,
		types:     o.eventTypes,
	}

	client.JoinProject(projectID)
	a.sub = client.OnDatabaseChange(a.onEvent)
	return a
}

func (a *AutoRefresher) onEvent(ev event.DatabaseEvent) {
	if ev.ProjectID != a.projectID {
		return
	}
	if a.table != "" && ev.TableName != a.table {
		return
	}
	if _, ok := a.types[ev.Type]; !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	// Trailing-edge debounce: each qualifying event replaces the pending
	// timer, so the refetch fires debounce after the last event of a burst.
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.fire)
}

func (a *AutoRefresher) fire() {
	a.fireMu.Lock()
	defer a.fireMu.Unlock()

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()

	a.refetch()
}

// Stop cancels any pending refetch, unsubscribes the listener and drops the
// room reference. It waits for a refetch already in flight, so no refetch
// runs after Stop returns; for the same reason refetch must not call Stop.
// Idempotent.
func (a *AutoRefresher) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	// Wait out a fire that had already left the stopped check.
	a.fireMu.Lock()
	a.fireMu.Unlock()

	a.sub.Cancel()
	a.client.LeaveProject(a.projectID)
}
