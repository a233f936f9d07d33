package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/internal/config"
	"codeberg.org/seoscribe/dashboard/internal/metrics"
	"codeberg.org/seoscribe/dashboard/internal/scheduler"
	ws "codeberg.org/seoscribe/dashboard/internal/websocket"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

// holds all dependencies and state for the gateway
type Server struct {
	config       *config.Config
	backend      usage.Backend
	closeBackend func()
	remote       *profiles.Client
	devices      *devices.Manager
	cookies      *auth.DeviceSessions
	hub          *ws.Hub
	metrics      *metrics.Metrics
	pruner       *scheduler.PruneScheduler // nil when the backend cannot prune
	router       *gin.Engine
}
