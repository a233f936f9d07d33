package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// message type constants for websocket communication
const (
	// is sent whenever the device's entitlement snapshot changes
	TypeSnapshot = "snapshot"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by clients to force a profile refresh
	TypeRefresh = "refresh"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// clients only send control messages
	maxMessageSize = 4 * 1024

	// outbound snapshots queued per client
	sendBufferSize = 32
)

// hub connection limit constants
const (
	maxConnectionsPerDevice = 5
	maxConnectionsPerIP     = 10
)

// errors
var (
	ErrInvalidMessage   = errors.New("invalid message format")
	ErrConnectionClosed = errors.New("connection closed")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	DeviceID  string          `json:"device_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// processes one inbound message for a client
type MessageHandler func(client *Client, msg *Message)

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// device whose entitlements this client streams
	DeviceID string

	// IP address of the client (for connection tracking)
	IPAddress string

	// websocket connection
	conn *websocket.Conn

	// hub reference for registration
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// last sequence number sent
	seq uint64
}

// tracks open stream connections so they can be limited and drained on shutdown
type Hub struct {
	// registered clients by client ID
	clients map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// mutex for thread-safe access to clients
	mu sync.RWMutex

	// connection tracking: device ID -> count of connections
	deviceConnections map[string]int

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// channel to signal shutdown
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// delay between the shutdown notice and closing connections
	drainDelay time.Duration

	// callback for client disconnect
	onClientDisconnect func(client *Client)
}
