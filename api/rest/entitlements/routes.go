package entitlements

import "github.com/gin-gonic/gin"

// registers entitlement routes; the group must carry the device middleware
func RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/entitlements")
	{
		group.GET("", GetHandler())
		group.POST("/refresh", RefreshHandler())
	}
}
