package realtime

import (
	"sync"

	"go_crm/internal/event"
)

// Subscription is an opaque handle returned by the On* registration methods.
// Cancel removes the listener; cancelling twice is a no-op.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel removes the subscription's listener.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type statusListener struct {
	id int64
	fn func(ConnectionStatus)
}

type dbListener struct {
	id int64
	fn func(event.DatabaseEvent)
}

type projectListener struct {
	id int64
	fn func(event.ProjectEvent)
}

// OnConnectionChange registers a listener fired with the new status on
// connect, disconnect and every reconnect attempt increment.
func (c *Client) OnConnectionChange(fn func(ConnectionStatus)) *Subscription {
	c.subsMu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.statusSubs = append(c.statusSubs, statusListener{id: id, fn: fn})
	c.subsMu.Unlock()

	return &Subscription{cancel: func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		for i, l := range c.statusSubs {
			if l.id == id {
				c.statusSubs = append(c.statusSubs[:i], c.statusSubs[i+1:]...)
				return
			}
		}
	}}
}

// OnDatabaseChange registers a listener for every database-change event on
// every joined room. Table filtering belongs to the caller (see AutoRefresher).
func (c *Client) OnDatabaseChange(fn func(event.DatabaseEvent)) *Subscription {
	c.subsMu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.dbSubs = append(c.dbSubs, dbListener{id: id, fn: fn})
	c.subsMu.Unlock()

	return &Subscription{cancel: func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		for i, l := range c.dbSubs {
			if l.id == id {
				c.dbSubs = append(c.dbSubs[:i], c.dbSubs[i+1:]...)
				return
			}
		}
	}}
}

// OnProjectEvent registers a listener for project-level events.
func (c *Client) OnProjectEvent(fn func(event.ProjectEvent)) *Subscription {
	c.subsMu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.projectSubs = append(c.projectSubs, projectListener{id: id, fn: fn})
	c.subsMu.Unlock()

	return &Subscription{cancel: func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		for i, l := range c.projectSubs {
			if l.id == id {
				c.projectSubs = append(c.projectSubs[:i], c.projectSubs[i+1:]...)
				return
			}
		}
	}}
}

// dispatchDatabaseEvent delivers ev to a snapshot of the current listeners.
// A listener registered while this event is being delivered does not see it,
// and two events are never interleaved (dispatchMu).
func (c *Client) dispatchDatabaseEvent(ev event.DatabaseEvent) {
	c.subsMu.Lock()
	listeners := make([]dbListener, len(c.dbSubs))
	copy(listeners, c.dbSubs)
	c.subsMu.Unlock()

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	for _, l := range listeners {
		l.fn(ev)
	}
}

func (c *Client) dispatchProjectEvent(ev event.ProjectEvent) {
	c.subsMu.Lock()
	listeners := make([]projectListener, len(c.projectSubs))
	copy(listeners, c.projectSubs)
	c.subsMu.Unlock()

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	for _, l := range listeners {
		l.fn(ev)
	}
}

func (c *Client) notifyStatus(status ConnectionStatus) {
	c.subsMu.Lock()
	listeners := make([]statusListener, len(c.statusSubs))
	copy(listeners, c.statusSubs)
	c.subsMu.Unlock()

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()
	for _, l := range listeners {
		l.fn(status)
	}
}
