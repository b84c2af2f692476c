package realtime

import "go_crm/internal/event"

// JoinProject adds one reference to the project's room. The first reference
// sends a physical join when connected; when disconnected, membership is
// replayed automatically on the next connect. Never returns an error.
func (c *Client) JoinProject(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.rooms[id]++
	first := c.rooms[id] == 1
	conn := c.conn
	connected := c.status.Connected
	last := c.lastSeen[id]
	c.mu.Unlock()

	if first && connected {
		c.sendRoomRequest(conn, event.KindJoin, event.RoomRequest{ProjectID: id, LastEventID: last})
	}
}

// LeaveProject drops one reference to the project's room. The physical leave
// is only sent when the last reference goes away, so one caller's leave never
// evicts a room another caller still wants. Leaving an unjoined room is a
// no-op.
func (c *Client) LeaveProject(id string) {
	c.mu.Lock()
	count, ok := c.rooms[id]
	if !ok || count == 0 {
		c.mu.Unlock()
		return
	}
	count--
	if count == 0 {
		delete(c.rooms, id)
	} else {
		c.rooms[id] = count
	}
	conn := c.conn
	connected := c.status.Connected
	c.mu.Unlock()

	if count == 0 && connected {
		c.sendRoomRequest(conn, event.KindLeave, event.RoomRequest{ProjectID: id})
	}
}

// RoomRefCount returns the current reference count for a project room.
func (c *Client) RoomRefCount(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[id]
}
