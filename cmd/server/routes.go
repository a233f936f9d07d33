package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/api/rest/actions"
	"codeberg.org/seoscribe/dashboard/api/rest/auth"
	"codeberg.org/seoscribe/dashboard/api/rest/entitlements"
	"codeberg.org/seoscribe/dashboard/api/rest/health"
	"codeberg.org/seoscribe/dashboard/api/websocket"
	ws "codeberg.org/seoscribe/dashboard/internal/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	cfg := server.config

	if corsMiddleware := CORSMiddleware(cfg); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.Use(server.metrics.Middleware())

	router.GET("/health", health.Handler(server.devices))
	router.GET("/metrics", server.metrics.Handler())

	rateLimit, err := RateLimitMiddleware(cfg, server.backend)
	if err != nil {
		return err
	}

	v1 := router.Group("/api/v1")
	v1.GET("/ping", health.PingHandler)

	device := v1.Group("")
	device.Use(
		rateLimit,
		server.cookies.Middleware(),
		server.devices.Middleware(server.cookies),
		func(c *gin.Context) {
			server.metrics.SetActiveDevices(server.devices.Count())
			c.Next()
		},
	)

	{
		entitlements.RegisterRoutes(device)
		actions.RegisterRoutes(device, server.metrics)
		auth.RegisterRoutes(device, server.cookies)
		websocket.RegisterRoutes(device, server.hub, websocket.StreamConfig{
			PollInterval: cfg.PollInterval,
			CheckOrigin:  ws.OriginChecker(cfg.CORSOrigins, cfg.IsProduction()),
			Recorder:     server.metrics,
		})
	}

	return nil
}
