package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (ctrl *Controller) CheckHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if err := ctrl.Infra.Postgres.Ping(ctx); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Health] Postgres ping failed: %v", err)
		checks["postgres"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["postgres"] = "up"
	}

	if err := ctrl.Infra.Redis.Ping(ctx); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Health] Redis ping failed: %v", err)
		checks["redis"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["redis"] = "up"
	}

	if mode, err := ctrl.Infra.Minio.Health(ctx); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Health] MinIO check failed: %v", err)
		checks["minio"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["minio"] = mode
	}

	c.JSON(status, gin.H{
		"status":     http.StatusText(status),
		"checks":     checks,
		"containers": ctrl.Jobs.Len(),
	})
}
