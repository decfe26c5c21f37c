package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"selfiebooth/internal/ratelimit"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Messaging   string `json:"messaging_service"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		status = "error"
		dbStatus = "disconnected"
		h.log.Error().Err(err).Msg("database ping failed")
	}

	// the rate limiter fails open, so a broken redis degrades rather than
	// errors the whole booth
	cacheStatus := "memory"
	if rl, ok := h.limiter.(*ratelimit.RedisLimiter); ok {
		cacheStatus = "redis"
		if err := rl.Ping(ctx); err != nil {
			cacheStatus = "redis_disconnected"
			h.log.Warn().Err(err).Msg("redis ping failed")
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusInternalServerError
	}

	c.JSON(code, healthResponse{
		Status:      status,
		Database:    dbStatus,
		Cache:       cacheStatus,
		Messaging:   h.messaging,
		Environment: h.cfg.Environment,
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}
