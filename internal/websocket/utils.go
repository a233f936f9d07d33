package websocket

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

// creates a message with a JSON-encoded payload
func NewMessage(msgType, deviceID string, payload any) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		DeviceID:  deviceID,
		Timestamp: time.Now(),
	}

	if payload == nil {
		return msg, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg.Payload = data

	return msg, nil
}

// builds an upgrader origin check. outside production every origin is
// accepted; in production the Origin header must be in allowed.
func OriginChecker(allowed []string, production bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if !production {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			logger.Warn("websocket connection with no origin header")
			return false
		}

		if len(allowed) == 0 {
			logger.Warn("websocket origin rejected - CORS_ORIGINS not configured",
				"origin", origin,
			)
			return false
		}

		if slices.Contains(allowed, origin) {
			return true
		}

		logger.Warn("websocket origin rejected - not in allowed origins",
			"origin", origin,
			"allowed_origins", allowed,
		)

		return false
	}
}

func GenerateClientID() (string, error) {
	bytes := make([]byte, 16)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}
