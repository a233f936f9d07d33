package devices

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

const contextKey = "device"

// attaches the device for the request and keeps its entitlement state in
// step with the cookie credentials. must run after auth.DeviceSessions.Middleware.
func (m *Manager) Middleware(cookies *auth.DeviceSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		device := m.Get(auth.GetDeviceID(c))
		syncCredentials(c, cookies, device.State)

		c.Set(contextKey, device)
		c.Next()
	}
}

func syncCredentials(c *gin.Context, cookies *auth.DeviceSessions, state *entitlements.State) {
	cookie := auth.GetCredentials(c)
	current := state.Credentials()

	switch {
	case cookie.IsSet() && state.IsRejected(cookie.AccessToken):
		// the API refused this token earlier; drop it from the cookie
		if err := cookies.SaveCredentials(c, auth.Credentials{}); err != nil {
			logger.ErrorErr(err, "failed to clear rejected credentials", "device_id", auth.GetDeviceID(c))
		}
	case cookie.IsSet() && cookie.AccessToken != current.AccessToken:
		if err := state.SetAuth(cookie); err != nil {
			logger.Warn("failed to adopt cookie credentials", "device_id", auth.GetDeviceID(c), "error", err)
		}
	case !cookie.IsSet() && current.IsSet():
		state.SignOut(c.Request.Context())
	}
}

// extracts the device set by Middleware
func FromContext(c *gin.Context) *Device {
	device, exists := c.Get(contextKey)
	if !exists {
		return nil
	}

	return device.(*Device) //nolint:errcheck,forcetypeassert // set by Middleware
}
