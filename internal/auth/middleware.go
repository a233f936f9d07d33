package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"codeberg.org/seoscribe/dashboard/internal/logger"
)

const (
	sessionName = "seoscribe_device"

	keyDeviceID     = "device_id"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"

	// device cookies last a year; idle devices expire server-side sooner
	sessionMaxAge = 365 * 24 * 60 * 60
)

// creates the device cookie store
func NewDeviceSessions(secret string, secure bool) *DeviceSessions {
	store := sessions.NewCookieStore([]byte(secret))

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &DeviceSessions{store: store}
}

// wraps an existing gorilla store
func NewDeviceSessionsFromStore(store sessions.Store) *DeviceSessions {
	return &DeviceSessions{store: store}
}

// assigns every browser a device id and exposes its stored credentials
// as device_id / credentials in the gin context
func (d *DeviceSessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := d.store.Get(c.Request, sessionName)
		if err != nil {
			// tampered or rotated-key cookie: start a fresh device
			logger.Debug("discarding unreadable device cookie", "error", err)
		}

		deviceID, _ := session.Values[keyDeviceID].(string) //nolint:errcheck // type assertion
		if _, parseErr := uuid.Parse(deviceID); parseErr != nil {
			deviceID = uuid.NewString()
			session.Values = map[any]any{keyDeviceID: deviceID}

			if err := session.Save(c.Request, c.Writer); err != nil {
				logger.ErrorErr(err, "failed to save device cookie")
			}
		}

		access, _ := session.Values[keyAccessToken].(string)   //nolint:errcheck // type assertion
		refresh, _ := session.Values[keyRefreshToken].(string) //nolint:errcheck // type assertion

		c.Set(keyDeviceID, deviceID)
		c.Set("credentials", Credentials{AccessToken: access, RefreshToken: refresh})

		c.Next()
	}
}

// stores credentials in the device cookie. empty credentials sign out.
func (d *DeviceSessions) SaveCredentials(c *gin.Context, creds Credentials) error {
	session, err := d.store.Get(c.Request, sessionName)
	if err != nil {
		logger.Debug("replacing unreadable device cookie", "error", err)
	}

	session.Values[keyDeviceID] = GetDeviceID(c)

	if creds.IsSet() {
		session.Values[keyAccessToken] = creds.AccessToken
		session.Values[keyRefreshToken] = creds.RefreshToken
	} else {
		delete(session.Values, keyAccessToken)
		delete(session.Values, keyRefreshToken)
	}

	c.Set("credentials", creds)

	return session.Save(c.Request, c.Writer)
}

// extracts the device id set by Middleware
func GetDeviceID(c *gin.Context) string {
	return c.GetString(keyDeviceID)
}

// extracts the cookie credentials set by Middleware
func GetCredentials(c *gin.Context) Credentials {
	creds, exists := c.Get("credentials")
	if !exists {
		return Credentials{}
	}

	return creds.(Credentials) //nolint:errcheck,forcetypeassert // set by Middleware
}
