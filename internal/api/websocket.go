package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/store"
	"github.com/markusressel/pace2go/internal/ui"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	messageTypeInfo          = "info"
	messageTypeError         = "error"
	messageTypeControlUpdate = "control_update"

	updateKeyLocked = "isLocked"

	websocketWriteTimeout = 2 * time.Second
	websocketReadLimit    = 4096
	websocketSendBuffer   = 16
)

type websocketReply struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type websocketMessage struct {
	Token   *string                    `json:"token"`
	Type    string                     `json:"type"`
	Updates map[string]json.RawMessage `json:"updates"`
}

type websocketClient struct {
	conn          *websocket.Conn
	send          chan []byte
	done          chan struct{}
	authenticated bool
	admin         bool
}

// WebsocketHub pushes device snapshots to all connected websocket clients
// and accepts control updates from authenticated ones.
type WebsocketHub struct {
	device     *device.Device
	adminToken string
	clients    cmap.ConcurrentMap[string, *websocketClient]
	upgrader   websocket.Upgrader
	nextId     atomic.Uint64
}

func NewWebsocketHub(d *device.Device, adminToken string) *WebsocketHub {
	return &WebsocketHub{
		device:     d,
		adminToken: adminToken,
		clients:    cmap.New[*websocketClient](),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebsocketHub) Name() string {
	return "websocket"
}

// Count returns the number of connected clients
func (h *WebsocketHub) Count() int {
	return h.clients.Count()
}

// Send broadcasts snapshot to all clients. Slow clients miss updates
// instead of blocking the others.
func (h *WebsocketHub) Send(snapshot store.Snapshot) error {
	if h.clients.Count() <= 0 {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	h.clients.IterCb(func(id string, client *websocketClient) {
		client.enqueue(payload)
	})
	return nil
}

// Close disconnects all clients
func (h *WebsocketHub) Close() {
	for _, client := range h.clients.Items() {
		_ = client.conn.Close()
	}
}

func (h *WebsocketHub) handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already replied with an error
		ui.Warning("Websocket upgrade failed: %v", err)
		return nil
	}
	conn.SetReadLimit(websocketReadLimit)

	id := strconv.FormatUint(h.nextId.Add(1), 10)
	client := &websocketClient{
		conn: conn,
		send: make(chan []byte, websocketSendBuffer),
		done: make(chan struct{}),
	}
	h.clients.Set(id, client)
	ui.Debug("Websocket client %s connected from %s", id, c.RealIP())

	go client.writeLoop()

	initial, err := json.Marshal(h.device.Snapshot())
	if err == nil {
		client.enqueue(initial)
	}

	h.readLoop(client)

	h.clients.Remove(id)
	close(client.done)
	_ = conn.Close()
	ui.Debug("Websocket client %s disconnected", id)
	return nil
}

func (h *WebsocketHub) readLoop(client *websocketClient) {
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var message websocketMessage
		if err := json.Unmarshal(data, &message); err != nil {
			ui.Debug("Ignoring invalid websocket message: %v", err)
			continue
		}
		reply := h.process(client, message)
		if reply == nil {
			continue
		}
		payload, err := json.Marshal(reply)
		if err == nil {
			client.enqueue(payload)
		}
	}
}

func (h *WebsocketHub) process(client *websocketClient, message websocketMessage) *websocketReply {
	if message.Token != nil {
		client.authenticated = len(*message.Token) > 0
		client.admin = len(h.adminToken) > 0 && *message.Token == h.adminToken
		if !client.authenticated {
			return &websocketReply{Type: messageTypeError, Message: "Authentication failed"}
		}
		return &websocketReply{Type: messageTypeInfo, Message: "Authentication successful"}
	}

	if message.Type != messageTypeControlUpdate || message.Updates == nil {
		return nil
	}

	updates := message.Updates
	if !client.admin {
		updates = sensitivityUpdates(updates)
		if !client.authenticated || len(updates) <= 0 {
			return &websocketReply{Type: messageTypeError, Message: "Unauthorized control update"}
		}
	}

	if err := h.applyUpdates(updates); err != nil {
		return &websocketReply{Type: messageTypeError, Message: err.Error()}
	}
	if client.admin {
		return &websocketReply{Type: messageTypeInfo, Message: "Control updated successfully"}
	}
	return &websocketReply{Type: messageTypeInfo, Message: "Sensitivity updated successfully"}
}

// sensitivityUpdates keeps only the updates any authenticated client may apply
func sensitivityUpdates(updates map[string]json.RawMessage) map[string]json.RawMessage {
	result := map[string]json.RawMessage{}
	for key, value := range updates {
		p, err := pacing.ParseParameter(key)
		if err != nil {
			continue
		}
		if p == pacing.ASensitivity || p == pacing.VSensitivity {
			result[key] = value
		}
	}
	return result
}

// applyUpdates applies every update and returns the first rejection
func (h *WebsocketHub) applyUpdates(updates map[string]json.RawMessage) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	// the lock goes first so unlocking and changing a value works in one message
	if raw, ok := updates[updateKeyLocked]; ok {
		var locked bool
		if err := json.Unmarshal(raw, &locked); err != nil {
			keep(fmt.Errorf("%s: %v", updateKeyLocked, err))
		} else {
			h.device.SetLocked(locked)
		}
	}

	for key, raw := range updates {
		if key == updateKeyLocked {
			continue
		}

		p, err := pacing.ParseParameter(key)
		if err != nil {
			keep(err)
			continue
		}
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			keep(fmt.Errorf("%s: %v", key, err))
			continue
		}
		_, err = h.device.SetParameter(p, value)
		keep(err)
	}
	return firstErr
}

func (client *websocketClient) enqueue(payload []byte) {
	select {
	case client.send <- payload:
	default:
	}
}

func (client *websocketClient) writeLoop() {
	for {
		select {
		case <-client.done:
			return
		case payload := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = client.conn.Close()
				return
			}
		}
	}
}
