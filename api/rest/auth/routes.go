package auth

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/auth"
)

// registers authentication routes; the group must carry the device middleware
func RegisterRoutes(router *gin.RouterGroup, cookies *auth.DeviceSessions) {
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/callback", CallbackHandler(cookies))
		authGroup.POST("/signout", SignOutHandler(cookies))
		authGroup.GET("/me", MeHandler())
	}
}
