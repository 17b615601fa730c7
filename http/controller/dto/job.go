package dto

import "github.com/tnqbao/gau-marine-service/entity"

type CreateJobRequestDTO struct {
	Consignee     string `json:"consignee" binding:"max=255"`
	BLNumber      string `json:"bl_number" binding:"max=128"`
	ContainerSize string `json:"container_size" binding:"max=64"`
	Terminal      string `json:"terminal" binding:"max=128"`
	Status        string `json:"status" binding:"omitempty,oneof=pending in-progress done cancelled eta"`
	ETA           string `json:"eta"`
}

type UpdateFieldRequestDTO struct {
	Value string `json:"value"`
}

type UpdateRefundStatusRequestDTO struct {
	RefundStatus string `json:"refund_status" binding:"required,oneof=pending collected"`
}

type RenameAttachmentRequestDTO struct {
	OldName string `json:"old_name" binding:"required"`
	NewName string `json:"new_name" binding:"required,max=255"`
}

type UploadResultDTO struct {
	Name  string          `json:"name"`
	File  *entity.JobFile `json:"file,omitempty"`
	Error string          `json:"error,omitempty"`
}
