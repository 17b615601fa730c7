package controller

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/http/controller/dto"
	"github.com/tnqbao/gau-marine-service/service/jobs"
	"github.com/tnqbao/gau-marine-service/utils"
)

func (ctrl *Controller) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()
	container, ok := ctrl.container(c, "Job")
	if !ok {
		return
	}

	if c.Query("refresh") == "true" {
		if err := container.LoadAll(ctx); err != nil {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Job] Refresh failed, serving cached jobs: %v", err)
		}
	}

	list := container.Jobs()
	utils.JSON200(c, gin.H{
		"jobs":      list,
		"count":     len(list),
		"terminals": entity.Terminals,
	})
}

func (ctrl *Controller) CreateJob(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateJobRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Job] Invalid create request: %v", err)
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	eta, err := jobs.ParseETA(req.ETA)
	if err != nil {
		utils.JSON400(c, err.Error())
		return
	}

	container, ok := ctrl.container(c, "Job")
	if !ok {
		return
	}

	job, err := container.Create(ctx, entity.Job{
		Consignee:     strings.TrimSpace(req.Consignee),
		BLNumber:      strings.TrimSpace(req.BLNumber),
		ContainerSize: strings.TrimSpace(req.ContainerSize),
		Terminal:      strings.TrimSpace(req.Terminal),
		Status:        entity.JobStatus(req.Status),
		ETA:           eta,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Created job %d for %s", job.Serial, container.Owner())
	utils.JSON201(c, gin.H{
		"message": "Job created successfully",
		"job":     job,
	})
}

func (ctrl *Controller) UpdateJobField(c *gin.Context) {
	ctx := c.Request.Context()
	serial, ok := serialParam(c)
	if !ok {
		return
	}

	var req dto.UpdateFieldRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	container, ok := ctrl.container(c, "Job")
	if !ok {
		return
	}

	field := jobs.Field(c.Param("field"))
	if err := container.UpdateField(ctx, serial, field, req.Value); err != nil {
		respondError(c, err)
		return
	}

	job, _ := container.Job(serial)
	utils.JSON200(c, gin.H{"job": job})
}

func (ctrl *Controller) UpdateRefundStatus(c *gin.Context) {
	ctx := c.Request.Context()
	serial, ok := serialParam(c)
	if !ok {
		return
	}

	var req dto.UpdateRefundStatusRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	container, ok := ctrl.container(c, "Refund")
	if !ok {
		return
	}

	if err := container.UpdateRefundStatus(ctx, serial, entity.RefundStatus(req.RefundStatus)); err != nil {
		respondError(c, err)
		return
	}

	job, _ := container.Job(serial)
	utils.JSON200(c, gin.H{"job": job})
}

func (ctrl *Controller) DeleteJob(c *gin.Context) {
	ctx := c.Request.Context()
	serial, ok := serialParam(c)
	if !ok {
		return
	}

	container, ok := ctrl.container(c, "Job")
	if !ok {
		return
	}

	if err := container.Delete(ctx, serial); err != nil {
		respondError(c, err)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Deleted job %d for %s", serial, container.Owner())
	utils.JSON200(c, gin.H{
		"message": "Job deleted successfully",
		"serial":  serial,
	})
}

func (ctrl *Controller) UploadJobFiles(c *gin.Context) {
	ctx := c.Request.Context()
	serial, ok := serialParam(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Attachment] Failed to read multipart form: %v", err)
		utils.JSON400(c, "Failed to get files: "+err.Error())
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		utils.JSON400(c, "No files provided")
		return
	}

	maxSize := ctrl.Config.EnvConfig.Storage.MaxUploadSize
	for _, h := range headers {
		if maxSize > 0 && h.Size > maxSize {
			utils.JSON413(c, gin.H{
				"error":    "File too large",
				"file":     h.Filename,
				"max_size": maxSize,
			})
			return
		}
	}

	container, ok := ctrl.container(c, "Attachment")
	if !ok {
		return
	}

	uploads := make([]jobs.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Attachment] Failed to open %s: %v", h.Filename, err)
			utils.JSON400(c, "Failed to read file "+h.Filename)
			return
		}
		defer f.Close()

		uploads = append(uploads, jobs.Upload{
			Name:     h.Filename,
			Size:     h.Size,
			MimeType: h.Header.Get("Content-Type"),
			Body:     f,
		})
	}

	results, err := container.AddAttachments(ctx, serial, uploads)
	out := make([]dto.UploadResultDTO, len(results))
	uploaded, rejected := 0, 0
	for i, r := range results {
		out[i] = dto.UploadResultDTO{Name: r.Name, File: r.File}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			if jobs.IsClientError(r.Err) {
				rejected++
			}
		} else {
			uploaded++
		}
	}

	if err != nil && !errors.Is(err, jobs.ErrNothingUploaded) {
		respondError(c, err)
		return
	}
	if uploaded == 0 {
		if rejected == len(results) {
			utils.JSON400(c, gin.H{"error": "No valid file was provided", "results": out})
			return
		}
		utils.JSON500(c, gin.H{"error": "No file was uploaded", "results": out})
		return
	}

	job, _ := container.Job(serial)
	utils.JSON200(c, gin.H{
		"uploaded": uploaded,
		"failed":   len(results) - uploaded,
		"results":  out,
		"job":      job,
	})
}
