package entitlements

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/logger"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
)

// GetHandler godoc
// @Summary Current entitlements
// @Description Plan, effective usage and gating decisions for the calling device.
// @Description Loads the profile on first use.
// @Tags entitlements
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/entitlements [get]
func GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		device := devices.FromContext(c)

		snap := device.State.Snapshot()
		if snap.Status == entitlements.StatusUninitialized {
			snap = refresh(c, device)
		}

		c.JSON(http.StatusOK, Response{DeviceID: device.ID, View: entitlements.ViewOf(snap)})
	}
}

// RefreshHandler godoc
// @Summary Refresh entitlements
// @Description Reconciles with the remote profile. Failures are reported in
// @Description the snapshot (stale, last_error) rather than as an error status.
// @Tags entitlements
// @Produce json
// @Success 200 {object} Response
// @Router /api/v1/entitlements/refresh [post]
func RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		device := devices.FromContext(c)
		snap := refresh(c, device)

		c.JSON(http.StatusOK, Response{DeviceID: device.ID, View: entitlements.ViewOf(snap)})
	}
}

func refresh(c *gin.Context, device *devices.Device) entitlements.Snapshot {
	snap, err := device.State.Refresh(c.Request.Context())
	if err != nil {
		logger.Debug("entitlement refresh degraded",
			"device_id", device.ID,
			"error", err,
		)
	}

	return snap
}
