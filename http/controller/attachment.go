package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-marine-service/http/controller/dto"
	"github.com/tnqbao/gau-marine-service/utils"
)

func (ctrl *Controller) RenameAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	jobID, ok := uuidParam(c, "job_id")
	if !ok {
		return
	}

	var req dto.RenameAttachmentRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	container, ok := ctrl.container(c, "Attachment")
	if !ok {
		return
	}

	if err := container.RenameAttachment(ctx, jobID, req.OldName, req.NewName); err != nil {
		respondError(c, err)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Attachment] Renamed %s to %s on job %s", req.OldName, req.NewName, jobID)
	utils.JSON200(c, gin.H{"message": "Attachment renamed successfully"})
}

func (ctrl *Controller) DeleteAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	jobID, ok := uuidParam(c, "job_id")
	if !ok {
		return
	}
	fileName := c.Param("file_name")

	container, ok := ctrl.container(c, "Attachment")
	if !ok {
		return
	}

	if err := container.RemoveAttachment(ctx, jobID, fileName); err != nil {
		respondError(c, err)
		return
	}

	utils.JSON200(c, gin.H{
		"message":   "Attachment deleted successfully",
		"file_name": fileName,
	})
}

func (ctrl *Controller) GetAttachmentURL(c *gin.Context) {
	ctx := c.Request.Context()
	jobID, ok := uuidParam(c, "job_id")
	if !ok {
		return
	}

	container, ok := ctrl.container(c, "Attachment")
	if !ok {
		return
	}

	url, err := container.AttachmentURL(ctx, jobID, c.Param("file_name"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.JSON200(c, gin.H{
		"url":        url,
		"expires_in": int(ctrl.Config.EnvConfig.Storage.JobFileURLExpiry.Seconds()),
	})
}
