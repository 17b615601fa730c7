package repository

import (
	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/infra"
	"gorm.io/gorm"
)

type Repository struct {
	JobRepo         *JobRepository
	DocumentRepo    *LibraryRepository
	CompanyFileRepo *LibraryRepository
}

func InitRepository(infra *infra.Infra) *Repository {
	return NewRepository(infra.Postgres.DB)
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		JobRepo:         NewJobRepository(db),
		DocumentRepo:    NewLibraryRepository(db, entity.DocumentsTable),
		CompanyFileRepo: NewLibraryRepository(db, entity.CompanyFilesTable),
	}
}
