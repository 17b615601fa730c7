package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/tnqbao/gau-marine-service/http/controller/dto"
	"github.com/tnqbao/gau-marine-service/service/library"
	"github.com/tnqbao/gau-marine-service/utils"
)

func (ctrl *Controller) ListDocuments(c *gin.Context) {
	ctrl.listLibrary(c, ctrl.Documents, "Document")
}
func (ctrl *Controller) UploadDocument(c *gin.Context) {
	ctrl.uploadLibrary(c, ctrl.Documents, "Document")
}
func (ctrl *Controller) DeleteDocument(c *gin.Context) {
	ctrl.deleteLibrary(c, ctrl.Documents, "Document")
}
func (ctrl *Controller) BrowseDocuments(c *gin.Context) {
	ctrl.browseLibrary(c, ctrl.Documents, "Document")
}
func (ctrl *Controller) GetDocumentURL(c *gin.Context) {
	ctrl.libraryURL(c, ctrl.Documents, "Document")
}
func (ctrl *Controller) ListCompanyFiles(c *gin.Context) {
	ctrl.listLibrary(c, ctrl.CompanyFiles, "CompanyFile")
}
func (ctrl *Controller) UploadCompanyFile(c *gin.Context) {
	ctrl.uploadLibrary(c, ctrl.CompanyFiles, "CompanyFile")
}
func (ctrl *Controller) DeleteCompanyFile(c *gin.Context) {
	ctrl.deleteLibrary(c, ctrl.CompanyFiles, "CompanyFile")
}
func (ctrl *Controller) BrowseCompanyFiles(c *gin.Context) {
	ctrl.browseLibrary(c, ctrl.CompanyFiles, "CompanyFile")
}
func (ctrl *Controller) GetCompanyFileURL(c *gin.Context) {
	ctrl.libraryURL(c, ctrl.CompanyFiles, "CompanyFile")
}

func (ctrl *Controller) listLibrary(c *gin.Context, lib *library.Library, tag string) {
	owner, ok := ctrl.owner(c, tag)
	if !ok {
		return
	}

	files, err := lib.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.JSON200(c, gin.H{
		"files": files,
		"count": len(files),
		"tree":  lib.Tree(),
	})
}

func (ctrl *Controller) uploadLibrary(c *gin.Context, lib *library.Library, tag string) {
	ctx := c.Request.Context()
	owner, ok := ctrl.owner(c, tag)
	if !ok {
		return
	}

	var form dto.LibraryUploadFormDTO
	if err := c.ShouldBind(&form); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[%s] Invalid upload form: %v", tag, err)
		utils.JSON400(c, "Invalid request: "+err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to get file from form data", tag)
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}

	maxSize := ctrl.Config.EnvConfig.Storage.MaxUploadSize
	if maxSize > 0 && fileHeader.Size > maxSize {
		utils.JSON413(c, gin.H{
			"error":    "File too large",
			"max_size": maxSize,
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[%s] Failed to open uploaded file: %v", tag, err)
		utils.JSON400(c, "Failed to read file")
		return
	}
	defer f.Close()

	file, err := lib.Upload(ctx, owner, form.FolderPath, form.Category, library.Upload{
		Name:     fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Body:     f,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.JSON201(c, gin.H{
		"message": "File uploaded successfully",
		"file":    file,
	})
}

func (ctrl *Controller) deleteLibrary(c *gin.Context, lib *library.Library, tag string) {
	owner, ok := ctrl.owner(c, tag)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := lib.Delete(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}

	utils.JSON200(c, gin.H{
		"message": "File deleted successfully",
		"id":      id,
	})
}

func (ctrl *Controller) browseLibrary(c *gin.Context, lib *library.Library, tag string) {
	owner, ok := ctrl.owner(c, tag)
	if !ok {
		return
	}

	listing, err := lib.Browse(c.Request.Context(), owner, c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.JSON200(c, gin.H{
		"path":         listing.Path,
		"folders":      listing.Folders,
		"files":        listing.Files,
		"folder_count": len(listing.Folders),
		"file_count":   len(listing.Files),
	})
}

func (ctrl *Controller) libraryURL(c *gin.Context, lib *library.Library, tag string) {
	owner, ok := ctrl.owner(c, tag)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	url, err := lib.FileURL(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.JSON200(c, gin.H{"url": url})
}
