package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tnqbao/gau-marine-service/service/jobs"
	"github.com/tnqbao/gau-marine-service/service/library"
	"github.com/tnqbao/gau-marine-service/utils"
)

// owner resolves the authenticated user or writes a 401.
func (ctrl *Controller) owner(c *gin.Context, tag string) (uuid.UUID, bool) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(c.Request.Context(), err, "[%s] user_id not found in context: %v", tag, err)
		utils.JSON401(c, "Unauthorized: user_id not found")
		return uuid.Nil, false
	}
	return userID, true
}

// container returns the owner's job container. A container that has never
// loaded cannot serve anything yet.
func (ctrl *Controller) container(c *gin.Context, tag string) (*jobs.Container, bool) {
	owner, ok := ctrl.owner(c, tag)
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()

	container, err := ctrl.Jobs.Get(ctx, owner)
	if err != nil {
		if container == nil || !container.Loaded() {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to load jobs for %s: %v", tag, owner, err)
			utils.JSON503(c, "Jobs are temporarily unavailable")
			return nil, false
		}
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[%s] Serving cached jobs for %s: %v", tag, owner, err)
	}
	return container, true
}

func serialParam(c *gin.Context) (int, bool) {
	serial, err := strconv.Atoi(c.Param("serial"))
	if err != nil || serial <= 0 {
		utils.JSON400(c, "Invalid serial")
		return 0, false
	}
	return serial, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.JSON400(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrNoOwner), errors.Is(err, library.ErrNoOwner):
		utils.JSON401(c, err.Error())
	case errors.Is(err, jobs.ErrJobNotFound), errors.Is(err, jobs.ErrFileNotFound),
		errors.Is(err, library.ErrFileNotFound), errors.Is(err, library.ErrUnknownFolder):
		utils.JSON404(c, err.Error())
	case errors.Is(err, jobs.ErrFileExists), errors.Is(err, jobs.ErrDuplicateSerial):
		utils.JSON409(c, err.Error())
	case errors.Is(err, jobs.ErrInvalidField), errors.Is(err, library.ErrInvalidPath),
		errors.Is(err, library.ErrEmptyUpload):
		utils.JSON400(c, err.Error())
	default:
		utils.JSON500(c, "Internal server error")
	}
}
