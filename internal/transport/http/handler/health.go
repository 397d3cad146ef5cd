package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"teachassist/internal/bootstrap"
	"teachassist/internal/platform/rabbitmq"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func statusOf(err error) dependencyStatus {
	if err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{
		"mysql":     h.checkMySQL(ctx),
		"redis":     statusOf(h.app.Redis.Ping(ctx).Err()),
		"materials": statusOf(h.app.Materials.Ping(ctx)),
		"artifacts": statusOf(h.app.Artifacts.Ping(ctx)),
	}
	// The broker is only dialed in queue mode.
	if h.app.MQConn != nil {
		deps["rabbitmq"] = statusOf(rabbitmq.Check(h.app.MQConn))
	}

	statusCode := http.StatusOK
	for _, v := range deps {
		if !v.(dependencyStatus).OK {
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return statusOf(err)
	}
	return statusOf(sqlDB.PingContext(ctx))
}
