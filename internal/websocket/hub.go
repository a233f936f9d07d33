package websocket

import (
	"context"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

const defaultDrainDelay = 500 * time.Millisecond

type HubOption func(*Hub)

// time clients get to read the shutdown notice before their connections close
func WithDrainDelay(d time.Duration) HubOption {
	return func(h *Hub) {
		h.drainDelay = d
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:           make(map[string]*Client),
		Register:          make(chan *Client),
		Unregister:        make(chan *Client),
		deviceConnections: make(map[string]int),
		ipConnections:     make(map[string]int),
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		drainDelay:        defaultDrainDelay,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// sets callback to be called when a client disconnects
func (h *Hub) OnClientDisconnect(callback func(client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientDisconnect = callback
}

// starts the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// registers a client; a no-op once the hub is shutting down
func (h *Hub) Join(client *Client) {
	select {
	case h.Register <- client:
	case <-h.shutdown:
		client.Close()
	}
}

// unregisters a client; a no-op once the hub is shutting down
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.shutdown:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.deviceConnections[client.DeviceID]++

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]++
	}

	logger.Info("stream client registered",
		"client_id", client.ID,
		"device_id", client.DeviceID,
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	// capture callback reference under lock
	callback := h.onClientDisconnect

	if _, exists := h.clients[client.ID]; !exists {
		h.mu.Unlock()
		return
	}

	delete(h.clients, client.ID)
	client.Close()

	h.deviceConnections[client.DeviceID]--
	if h.deviceConnections[client.DeviceID] <= 0 {
		delete(h.deviceConnections, client.DeviceID)
	}

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}

	h.mu.Unlock()

	logger.Info("stream client unregistered",
		"client_id", client.ID,
		"device_id", client.DeviceID,
	)

	if callback != nil {
		callback(client)
	}
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(deviceID, ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.deviceConnections[deviceID] >= maxConnectionsPerDevice {
		return false, "Maximum connections per device exceeded"
	}

	if ipAddress != "" && h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "Maximum connections per IP address exceeded"
	}

	return true, ""
}

// returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// returns the number of open connections for a device
func (h *Hub) DeviceCount(deviceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deviceConnections[deviceID]
}

// notifies every client, closes all connections and stops Run.
// waits for Run to finish or ctx to end. safe to call twice.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.RLock()

	logger.Info("notifying stream clients of server shutdown", "clients", len(h.clients))

	for _, client := range h.clients {
		shutdownMsg, err := NewMessage(TypeServerShutdown, client.DeviceID, ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create shutdown message")
			continue
		}

		if err := client.Send(shutdownMsg); err != nil {
			logger.Debug("failed to send shutdown notification",
				"client_id", client.ID,
				"error", err,
			)
		}
	}

	h.mu.RUnlock()

	// give clients time to receive the shutdown message
	time.Sleep(h.drainDelay)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.Close()
	}

	h.clients = make(map[string]*Client)
	h.deviceConnections = make(map[string]int)
	h.ipConnections = make(map[string]int)
}
