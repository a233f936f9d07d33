package websocket

import (
	"net/http"
	"time"
)

// receives stream open/close events
type StreamRecorder interface {
	StreamOpened()
	StreamClosed()
}

// stream settings shared by every connection
type StreamConfig struct {
	// how often an open stream refreshes the device's profile
	PollInterval time.Duration

	// origin check for the upgrade; nil accepts every origin
	CheckOrigin func(r *http.Request) bool

	// optional
	Recorder StreamRecorder
}
