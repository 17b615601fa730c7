package controller

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const eventsHeartbeat = 25 * time.Second

// StreamEvents pushes the owner's notifications as Server-Sent Events.
func (ctrl *Controller) StreamEvents(c *gin.Context) {
	owner, ok := ctrl.owner(c, "Events")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	notifications := ctrl.Notifications.Subscribe(ctx, owner)

	ticker := time.NewTicker(eventsHeartbeat)
	defer ticker.Stop()

	fmt.Fprintf(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		case n, ok := <-notifications:
			if !ok {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Events] Failed to encode notification: %v", err)
				continue
			}

			fmt.Fprintf(c.Writer, "event: %s\n", n.Kind)
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			c.Writer.Flush()
		}
	}
}
