package dto

type LibraryUploadFormDTO struct {
	FolderPath string `form:"folder_path" binding:"required"`
	Category   string `form:"category"`
}
