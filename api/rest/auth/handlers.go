package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/errors"
	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

const defaultRedirect = "/"

// CallbackHandler godoc
// @Summary Login callback
// @Description Stores the credentials issued by SEOScribe in the device cookie
// @Description and redirects back into the app.
// @Tags auth
// @Param token query string true "access token"
// @Param refresh_token query string false "refresh token"
// @Param redirect query string false "relative path to return to"
// @Success 302 {string} string "Redirect"
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/v1/auth/callback [get]
func CallbackHandler(cookies *auth.DeviceSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params CallbackParams

		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		creds := auth.Credentials{
			AccessToken:  strings.TrimSpace(params.Token),
			RefreshToken: strings.TrimSpace(params.RefreshToken),
		}

		device := devices.FromContext(c)

		if err := device.State.SetAuth(creds); err != nil {
			errors.Respond(c, err)
			return
		}

		if err := cookies.SaveCredentials(c, creds); err != nil {
			errors.InternalError(c, "failed to save credentials", err)
			return
		}

		logger.Info("device signed in", "device_id", device.ID)

		c.Redirect(http.StatusFound, safeRedirect(params.Redirect))
	}
}

// SignOutHandler godoc
// @Summary Sign out
// @Description Clears the device credentials; visitor limits apply afterwards.
// @Tags auth
// @Success 204
// @Router /api/v1/auth/signout [post]
func SignOutHandler(cookies *auth.DeviceSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		device := devices.FromContext(c)

		if err := cookies.SaveCredentials(c, auth.Credentials{}); err != nil {
			errors.InternalError(c, "failed to clear credentials", err)
			return
		}

		device.State.SignOut(c.Request.Context())

		c.Status(http.StatusNoContent)
	}
}

// MeHandler godoc
// @Summary Current account
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Router /api/v1/auth/me [get]
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := devices.FromContext(c).State

		snap := state.Snapshot()
		if snap.Status == entitlements.StatusUninitialized {
			snap, _ = state.Refresh(c.Request.Context()) //nolint:errcheck // degraded snapshot is still reported
		}

		c.JSON(http.StatusOK, MeResponse{
			SignedIn: snap.Plan.IsAccount(),
			Plan:     string(snap.Plan),
			User:     snap.User,
		})
	}
}

// only same-site relative paths; anything else goes home
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return defaultRedirect
	}

	return target
}

