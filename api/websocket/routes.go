package websocket

import (
	"github.com/gin-gonic/gin"

	ws "codeberg.org/seoscribe/dashboard/internal/websocket"
)

// registers the snapshot stream; the group must carry the device middleware
func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, cfg StreamConfig) {
	router.GET("/entitlements/stream", StreamHandler(hub, cfg))
}
