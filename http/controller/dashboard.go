package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/utils"
)

func (ctrl *Controller) GetDashboard(c *gin.Context) {
	container, ok := ctrl.container(c, "Dashboard")
	if !ok {
		return
	}

	utils.JSON200(c, gin.H{
		"summary":   container.Summary(),
		"terminals": entity.Terminals,
	})
}

func (ctrl *Controller) ListRefunds(c *gin.Context) {
	container, ok := ctrl.container(c, "Refund")
	if !ok {
		return
	}

	summary := container.Summary()
	utils.JSON200(c, gin.H{
		"jobs":      container.RefundJobs(),
		"pending":   summary.PendingRefunds,
		"collected": summary.CollectedRefunds,
	})
}
