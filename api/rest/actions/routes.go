package actions

import "github.com/gin-gonic/gin"

// registers generation and tool routes; the group must carry the device middleware
func RegisterRoutes(router *gin.RouterGroup, rec Recorder) {
	router.POST("/generate", GenerateHandler(rec))
	router.GET("/tools", ListToolsHandler)
	router.POST("/tools/:tool", ToolHandler(rec))
}
