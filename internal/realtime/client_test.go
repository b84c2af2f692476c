package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"go_crm/internal/event"
)

// fakeConn is an in-memory Conn fed by the test acting as the server.
type fakeConn struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// serverPush delivers a database event frame as the server would.
func (c *fakeConn) serverPush(t *testing.T, ev event.DatabaseEvent) {
	t.Helper()
	frame, err := event.Marshal(event.KindDBChange, ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	c.in <- frame
}

// roomRequests decodes the join/leave frames written so far.
func (c *fakeConn) roomRequests(t *testing.T) []event.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var envs []event.Envelope
	for _, data := range c.writes {
		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		if env.Kind == event.KindJoin || env.Kind == event.KindLeave {
			envs = append(envs, env)
		}
	}
	return envs
}

// fakeDialer fails the first failures dials, then hands out fake conns.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
	conns    []*fakeConn
}

func (d *fakeDialer) dial(url, token string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failures > 0 {
		d.failures--
		return nil, errors.New("dial refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) latest() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func testClient(d *fakeDialer) *Client {
	return New(Config{
		URL:     "ws://test/ws",
		Logger:  quietLogger(),
		Dialer:  d.dial,
		Backoff: []time.Duration{time.Millisecond, time.Millisecond},
	})
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 5 * time.Second},
		{4, 10 * time.Second},
		{5, 30 * time.Second},
		{6, 30 * time.Second},
		{100, 30 * time.Second},
		{0, 1 * time.Second},
	}
	for _, tt := range tests {
		if got := BackoffDelay(tt.attempt, DefaultBackoff); got != tt.want {
			t.Errorf("BackoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestClient_InitConnects(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	c.Init()

	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	st := c.Status()
	if st.ReconnectAttempts != 0 {
		t.Errorf("Expected 0 attempts after connect, got %d", st.ReconnectAttempts)
	}
}

func TestClient_InitIdempotent(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	c.Init()
	c.Init()
	c.Init()

	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	if got := d.dialCount(); got != 1 {
		t.Errorf("Expected exactly 1 dial, got %d", got)
	}
}

func TestClient_AttemptsIncrementThenResetOnConnect(t *testing.T) {
	d := &fakeDialer{failures: 3}
	c := testClient(d)
	defer c.Disconnect()

	var mu sync.Mutex
	var seen []ConnectionStatus
	sub := c.OnConnectionChange(func(st ConnectionStatus) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})
	defer sub.Cancel()

	c.Init()

	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	mu.Lock()
	defer mu.Unlock()
	// Three failures then success: attempts 1, 2, 3, then connected with 0.
	var attempts []int
	var connected bool
	for _, st := range seen {
		if st.Connected {
			connected = true
			if st.ReconnectAttempts != 0 {
				t.Errorf("Expected attempts reset to 0 on connect, got %d", st.ReconnectAttempts)
			}
		} else {
			attempts = append(attempts, st.ReconnectAttempts)
		}
	}
	if !connected {
		t.Fatal("Never saw connected status")
	}
	if len(attempts) != 3 {
		t.Fatalf("Expected 3 failed attempts, got %v", attempts)
	}
	for i, a := range attempts {
		if a != i+1 {
			t.Errorf("Expected strictly increasing attempts, got %v", attempts)
			break
		}
	}
}

func TestClient_DisconnectStopsRetrying(t *testing.T) {
	d := &fakeDialer{failures: 1 << 30}
	c := testClient(d)

	c.Init()
	waitFor(t, func() bool { return c.Status().ReconnectAttempts >= 2 }, "no reconnect attempts")

	c.Disconnect()
	settled := d.dialCount()

	time.Sleep(20 * time.Millisecond)
	if got := d.dialCount(); got != settled {
		t.Errorf("Dials continued after Disconnect: %d -> %d", settled, got)
	}

	st := c.Status()
	if st.Connected || st.ReconnectAttempts != 0 {
		t.Errorf("Expected zeroed status after Disconnect, got %+v", st)
	}
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	c.Init()
	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	// Server drops the connection; the client must come back on its own.
	d.latest().Close()

	waitFor(t, func() bool { return d.dialCount() >= 2 && c.Status().Connected }, "client never reconnected")
}

func TestClient_DialErrorsNeverPropagate(t *testing.T) {
	d := &fakeDialer{failures: 1 << 30}
	c := testClient(d)
	defer c.Disconnect()

	// Neither Init nor JoinProject may panic or fail visibly.
	c.Init()
	c.JoinProject("p1")

	waitFor(t, func() bool { return c.Status().ReconnectAttempts >= 1 }, "no attempt recorded")
	if c.Status().Connected {
		t.Error("Expected disconnected status")
	}
}

func TestRooms_JoinSendsRequestWhenConnected(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	c.Init()
	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	c.JoinProject("p1")

	conn := d.latest()
	waitFor(t, func() bool { return len(conn.roomRequests(t)) == 1 }, "join frame never sent")

	env := conn.roomRequests(t)[0]
	if env.Kind != event.KindJoin {
		t.Errorf("Expected join frame, got %s", env.Kind)
	}
}

func TestRooms_RefCountedLeave(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	c.Init()
	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")
	conn := d.latest()

	// Two independent consumers join the same room.
	c.JoinProject("p1")
	c.JoinProject("p1")
	if got := c.RoomRefCount("p1"); got != 2 {
		t.Fatalf("Expected refcount 2, got %d", got)
	}

	// One leaves; the room must stay joined.
	c.LeaveProject("p1")
	if got := c.RoomRefCount("p1"); got != 1 {
		t.Fatalf("Expected refcount 1, got %d", got)
	}
	for _, env := range conn.roomRequests(t) {
		if env.Kind == event.KindLeave {
			t.Fatal("Physical leave sent while a consumer still wants the room")
		}
	}

	// Last consumer leaves; now the physical leave goes out.
	c.LeaveProject("p1")
	waitFor(t, func() bool {
		for _, env := range conn.roomRequests(t) {
			if env.Kind == event.KindLeave {
				return true
			}
		}
		return false
	}, "physical leave never sent")

	// Leaving again is a no-op.
	c.LeaveProject("p1")
	if got := c.RoomRefCount("p1"); got != 0 {
		t.Errorf("Expected refcount 0, got %d", got)
	}
}

func TestRooms_ReplayedOnReconnect(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	// Join before the connection exists; it must be deferred.
	c.JoinProject("p1")
	c.Init()
	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	first := d.latest()
	waitFor(t, func() bool { return len(first.roomRequests(t)) == 1 }, "deferred join never sent")

	// Deliver an event so the replay cursor advances.
	first.serverPush(t, event.DatabaseEvent{EventID: 7, ProjectID: "p1", TableName: "invoices", Type: event.TypeUpdate})
	waitFor(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.lastSeen["p1"] == 7
	}, "event id never recorded")

	// Drop and reconnect; the join must be replayed with the cursor.
	first.Close()
	waitFor(t, func() bool { return d.dialCount() >= 2 && c.Status().Connected }, "client never reconnected")

	second := d.latest()
	waitFor(t, func() bool { return len(second.roomRequests(t)) == 1 }, "join not replayed on reconnect")

	var req event.RoomRequest
	if err := json.Unmarshal(second.roomRequests(t)[0].Data, &req); err != nil {
		t.Fatalf("unmarshal room request: %v", err)
	}
	if req.ProjectID != "p1" || req.LastEventID != 7 {
		t.Errorf("Expected replay join for p1 at event 7, got %+v", req)
	}
}

func TestClient_DispatchesEventsToListeners(t *testing.T) {
	d := &fakeDialer{}
	c := testClient(d)
	defer c.Disconnect()

	received := make(chan event.DatabaseEvent, 1)
	sub := c.OnDatabaseChange(func(ev event.DatabaseEvent) { received <- ev })
	defer sub.Cancel()

	c.Init()
	waitFor(t, func() bool { return c.Status().Connected }, "client never connected")

	d.latest().serverPush(t, event.DatabaseEvent{EventID: 1, ProjectID: "p1", TableName: "companies", Type: event.TypeInsert})

	select {
	case ev := <-received:
		if ev.TableName != "companies" || ev.Type != event.TypeInsert {
			t.Errorf("Unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Event never dispatched")
	}
}
