package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go_crm/internal/event"
)

// ConnectionStatus is a snapshot of the channel connection.
// ReconnectAttempts counts consecutive failed attempts and resets to zero on
// a successful connect.
type ConnectionStatus struct {
	Connected         bool `json:"connected"`
	ReconnectAttempts int  `json:"reconnectAttempts"`
}

// Conn is the minimal connection surface the client needs. The production
// implementation wraps a gorilla websocket connection; tests substitute an
// in-memory fake.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a connection to the event channel endpoint.
type Dialer func(url, token string) (Conn, error)

// Config configures a Client.
type Config struct {
	URL     string
	Token   string
	Logger  *logrus.Entry
	Dialer  Dialer          // defaults to DialWebsocket
	Backoff []time.Duration // defaults to DefaultBackoff
}

// Client maintains one long-lived connection to the server's event channel.
// It reconnects with capped backoff, replays room membership after every
// (re)connect, and fans incoming events out to registered listeners.
//
// Connection failures are never returned to callers; they surface only
// through ConnectionStatus.
type Client struct {
	url     string
	token   string
	log     *logrus.Entry
	dial    Dialer
	backoff []time.Duration

	mu         sync.Mutex
	started    bool
	generation int64
	cancel     chan struct{}
	conn       Conn
	status     ConnectionStatus
	rooms      map[string]int   // project id -> join refcount
	lastSeen   map[string]int64 // project id -> newest replayed/received event id

	subsMu      sync.Mutex
	nextSubID   int64
	statusSubs  []statusListener
	dbSubs      []dbListener
	projectSubs []projectListener

	// dispatchMu serializes listener invocation so one event's delivery is
	// never interleaved with another's.
	dispatchMu sync.Mutex
}

// New creates a Client. It does not connect until Init is called.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	dial := cfg.Dialer
	if dial == nil {
		dial = DialWebsocket
	}
	backoff := cfg.Backoff
	if len(backoff) == 0 {
		backoff = DefaultBackoff
	}
	return &Client{
		url:      cfg.URL,
		token:    cfg.Token,
		log:      logger.WithField("component", "realtime-client"),
		dial:     dial,
		backoff:  backoff,
		rooms:    make(map[string]int),
		lastSeen: make(map[string]int64),
	}
}

// Init starts the connection loop. Idempotent: calling it while the client is
// already running is a no-op. It never returns an error; failures show up in
// Status.
func (c *Client) Init() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.generation++
	c.cancel = make(chan struct{})
	gen, cancel := c.generation, c.cancel
	c.mu.Unlock()

	go c.run(gen, cancel)
}

// Status returns a snapshot of the connection state.
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Reconnect drops the current connection (if any) and retries immediately,
// outside the backoff schedule. If the client is not running it behaves like
// Init.
func (c *Client) Reconnect() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		c.Init()
		return
	}
	c.generation++
	if c.cancel != nil {
		close(c.cancel)
	}
	c.cancel = make(chan struct{})
	gen, cancel := c.generation, c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	go c.run(gen, cancel)
}

// Disconnect tears the connection down and cancels any pending reconnect
// timer. Room membership and listeners survive; a later Init starts fresh and
// rejoins everything.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.generation++
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.status = ConnectionStatus{}
	status := c.status
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.notifyStatus(status)
}

// stale reports whether gen belongs to a superseded connection loop.
func (c *Client) stale(gen int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.generation
}

// run is the connection loop for one generation. It exits when Disconnect or
// Reconnect supersedes it.
func (c *Client) run(gen int64, cancel chan struct{}) {
	for {
		if c.stale(gen) {
			return
		}

		conn, err := c.dial(c.url, c.token)
		if err != nil {
			attempt, ok := c.noteAttempt(gen)
			if !ok {
				return
			}
			delay := BackoffDelay(attempt, c.backoff)
			c.log.WithError(err).WithFields(logrus.Fields{
				"attempt": attempt,
				"retryIn": delay,
			}).Warn("connect failed")
			if !c.waitRetry(gen, cancel, delay) {
				return
			}
			continue
		}

		if !c.adopt(gen, conn) {
			conn.Close()
			return
		}

		c.readLoop(conn)

		if !c.noteDrop(gen) {
			return
		}
	}
}

// noteAttempt increments the attempt counter and notifies status listeners.
// Returns the attempt number, or ok=false when the loop is stale.
func (c *Client) noteAttempt(gen int64) (int, bool) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return 0, false
	}
	c.status.Connected = false
	c.status.ReconnectAttempts++
	status := c.status
	c.mu.Unlock()

	c.notifyStatus(status)
	return status.ReconnectAttempts, true
}

// adopt installs a freshly dialed connection, resets the attempt counter and
// replays room membership (with per-room replay cursors).
func (c *Client) adopt(gen int64, conn Conn) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.status = ConnectionStatus{Connected: true}
	status := c.status
	joins := make([]event.RoomRequest, 0, len(c.rooms))
	for id, count := range c.rooms {
		if count > 0 {
			joins = append(joins, event.RoomRequest{ProjectID: id, LastEventID: c.lastSeen[id]})
		}
	}
	c.mu.Unlock()

	c.notifyStatus(status)
	c.log.Info("connected")

	for _, req := range joins {
		c.sendRoomRequest(conn, event.KindJoin, req)
	}
	return true
}

// noteDrop records an unexpected disconnect. Returns false when the loop is
// stale and should exit instead of retrying.
func (c *Client) noteDrop(gen int64) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.conn = nil
	c.status.Connected = false
	status := c.status
	c.mu.Unlock()

	c.log.Warn("connection lost")
	c.notifyStatus(status)
	return true
}

// waitRetry sleeps for the backoff delay. Returns false when cancelled.
func (c *Client) waitRetry(gen int64, cancel chan struct{}, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return !c.stale(gen)
	case <-cancel:
		return false
	}
}

// readLoop consumes frames until the connection errors out.
func (c *Client) readLoop(conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("malformed frame, ignoring")
			continue
		}

		switch env.Kind {
		case event.KindDBChange:
			var ev event.DatabaseEvent
			if err := json.Unmarshal(env.Data, &ev); err != nil {
				continue
			}
			c.recordEventID(ev)
			c.dispatchDatabaseEvent(ev)
		case event.KindProjectEvent:
			var ev event.ProjectEvent
			if err := json.Unmarshal(env.Data, &ev); err != nil {
				continue
			}
			c.dispatchProjectEvent(ev)
		}
	}
}

// recordEventID advances the replay cursor for the event's project.
func (c *Client) recordEventID(ev event.DatabaseEvent) {
	if ev.EventID == 0 {
		return
	}
	c.mu.Lock()
	if ev.EventID > c.lastSeen[ev.ProjectID] {
		c.lastSeen[ev.ProjectID] = ev.EventID
	}
	c.mu.Unlock()
}

// sendRoomRequest writes a join/leave frame. Send errors are ignored: if the
// connection is broken the read loop notices and membership is replayed on
// the next connect.
func (c *Client) sendRoomRequest(conn Conn, kind string, req event.RoomRequest) {
	if conn == nil {
		return
	}
	frame, err := event.Marshal(kind, req)
	if err != nil {
		return
	}
	if err := conn.WriteMessage(frame); err != nil {
		c.log.WithError(err).WithField("room", req.ProjectID).Debug("room request send failed")
	}
}
