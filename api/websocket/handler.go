package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	ws "codeberg.org/seoscribe/dashboard/internal/websocket"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

const (
	defaultPollInterval = 3 * time.Second
	refreshTimeout      = 10 * time.Second
)

// StreamHandler godoc
// @Summary Stream entitlement snapshots
// @Description Upgrades to a websocket and pushes the device's dashboard view
// @Description on connect, after every refresh and after every local change.
// @Description Clients may send {"type":"refresh"} or {"type":"ping"}.
// @Tags entitlements
// @Success 101
// @Failure 429 {object} errors.ErrorResponse
// @Router /api/v1/entitlements/stream [get]
func StreamHandler(hub *ws.Hub, cfg StreamConfig) gin.HandlerFunc {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     cfg.CheckOrigin,
	}

	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	return func(c *gin.Context) {
		device := devices.FromContext(c)
		ip := c.ClientIP()

		if ok, reason := hub.CanAcceptConnection(device.ID, ip); !ok {
			errors.TooManyRequests(c, reason)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to create client", err)
			return
		}

		// the device cookie may have been issued by this very request
		header := http.Header{}
		if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
			header["Set-Cookie"] = cookies
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, header)
		if err != nil {
			// upgrader already wrote the error response
			logger.Warn("websocket upgrade failed",
				"device_id", device.ID,
				"error", err,
			)
			return
		}

		client := ws.NewClient(clientID, device.ID, ip, conn, hub)
		hub.Join(client)

		push := func(snap entitlements.Snapshot) {
			msg, err := ws.NewMessage(ws.TypeSnapshot, device.ID, entitlements.ViewOf(snap))
			if err != nil {
				logger.ErrorErr(err, "failed to encode snapshot", "device_id", device.ID)
				return
			}

			client.Send(msg) //nolint:errcheck,gosec // closed clients drop snapshots
		}

		unsubscribe := device.State.Subscribe(push)
		push(device.State.Snapshot())

		poller := entitlements.NewPoller(device.State, interval)
		poller.Start()

		if cfg.Recorder != nil {
			cfg.Recorder.StreamOpened()
		}

		go client.WritePump()
		go func() {
			defer func() {
				poller.Stop()
				unsubscribe()

				if cfg.Recorder != nil {
					cfg.Recorder.StreamClosed()
				}
			}()

			client.ReadPump(handleMessage(device))
		}()
	}
}

// answers the control messages a stream client may send
func handleMessage(device *devices.Device) ws.MessageHandler {
	return func(client *ws.Client, msg *ws.Message) {
		switch msg.Type {
		case ws.TypePing:
			pong, err := ws.NewMessage(ws.TypePong, client.DeviceID, nil)
			if err == nil {
				client.Send(pong) //nolint:errcheck,gosec // best effort
			}

		case ws.TypeRefresh:
			// the refresh notifies subscribers, which pushes the new snapshot
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()

			if _, err := device.State.Refresh(ctx); err != nil {
				logger.Debug("stream refresh degraded",
					"device_id", client.DeviceID,
					"error", err,
				)
			}

		default:
			client.SendError(errors.CodeBadRequest, "unsupported message type")
		}
	}
}
