package status

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ledkeys/ledkeys/internal/device"
	"github.com/ledkeys/ledkeys/internal/lighting"
	"github.com/ledkeys/ledkeys/internal/pipeline"
)

// DeviceLister reports the devices a key source is reading. The terminal
// source has none, so it may be nil.
type DeviceLister interface {
	Devices() []device.Info
	Failures() []device.OpenFailure
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 32),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans pipeline events out to WebSocket clients and remembers
// the latest state for new ones.
type Broadcaster struct {
	devices DeviceLister
	logger  *zap.SugaredLogger

	mu         sync.RWMutex
	clients    map[*client]bool
	state      lighting.State
	lastResult *lighting.Result
}

var _ pipeline.Observer = (*Broadcaster)(nil)

func NewBroadcaster(initial lighting.State, devices DeviceLister, logger *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{
		devices: devices,
		logger:  logger,
		clients: make(map[*client]bool),
		state:   initial,
	}
}

// Observe records the event and pushes it to every client. It never blocks;
// clients that fall behind are dropped.
func (b *Broadcaster) Observe(e pipeline.Event) {
	var msg WSMessage

	b.mu.Lock()
	b.state = e.State
	switch e.Type {
	case pipeline.EventNotify:
		if e.Result == nil {
			b.mu.Unlock()
			return
		}
		res := *e.Result
		b.lastResult = &res
		msg = WSMessage{Type: MsgNotify, Payload: NotifyPayload{Key: e.Symbol, Result: res}}
	default:
		msg = WSMessage{Type: MsgState, Payload: StatePayload{
			Key:         e.Symbol,
			Device:      e.Device,
			Description: e.Desc,
			State:       e.State,
			PresetID:    e.State.PresetID(),
		}}
	}
	b.mu.Unlock()

	b.broadcast(msg)
}

// Snapshot returns the current state, devices and last notify result.
func (b *Broadcaster) Snapshot() SnapshotPayload {
	b.mu.RLock()
	snap := SnapshotPayload{
		State:      b.state,
		PresetID:   b.state.PresetID(),
		LastResult: b.lastResult,
	}
	b.mu.RUnlock()

	snap.Devices, snap.Failures = b.Devices()
	return snap
}

// Devices returns the device list, empty when there is no lister.
func (b *Broadcaster) Devices() ([]device.Info, []device.OpenFailure) {
	if b.devices == nil {
		return []device.Info{}, []device.OpenFailure{}
	}
	return b.devices.Devices(), b.devices.Failures()
}

// AddClient starts serving conn. The snapshot is queued before the client
// is visible to broadcasts so it is always the first message.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	data, err := json.Marshal(WSMessage{Type: MsgSnapshot, Payload: b.Snapshot()})
	if err != nil {
		b.logger.Warnw("Snapshot marshal error", "error", err)
	} else {
		c.send <- data
	}

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// CloseAll disconnects every client.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warnw("Broadcast marshal error", "type", msg.Type, "error", err)
		return
	}

	// Sends happen under the read lock so RemoveClient cannot close a
	// channel mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.logger.Warn("Status client too slow, disconnecting")
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
