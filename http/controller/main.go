package controller

import (
	"context"

	"github.com/google/uuid"

	"github.com/tnqbao/gau-marine-service/config"
	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/infra"
	"github.com/tnqbao/gau-marine-service/repository"
	"github.com/tnqbao/gau-marine-service/service/jobs"
	"github.com/tnqbao/gau-marine-service/service/library"
)

// NotificationStream is what /events reads from.
type NotificationStream interface {
	Subscribe(ctx context.Context, owner uuid.UUID) <-chan entity.Notification
}

type Controller struct {
	Config        *config.Config
	Infra         *infra.Infra
	Repository    *repository.Repository
	Jobs          *jobs.Registry
	Documents     *library.Library
	CompanyFiles  *library.Library
	Notifications NotificationStream
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}

	var serials jobs.SerialAllocator = jobs.LocalSerials{}
	if config.EnvConfig.Jobs.SerialAllocator == "redis" {
		serials = infra.Serials
	}

	storage := config.EnvConfig.Storage
	libraryDeps := func(r *repository.LibraryRepository) library.Deps {
		return library.Deps{
			Repo:      r,
			Objects:   infra.Minio,
			Orphans:   infra.Produce.StorageService,
			Logger:    infra.Logger,
			URLExpiry: storage.LibraryFileURLExpiry,
		}
	}

	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Jobs: jobs.NewRegistry(jobs.Deps{
			Store:     repo.JobRepo,
			Objects:   infra.Minio,
			Serials:   serials,
			Notifier:  infra.Notifications,
			Orphans:   infra.Produce.StorageService,
			Logger:    infra.Logger,
			URLExpiry: storage.JobFileURLExpiry,
		}),
		Documents:     library.NewDocuments(libraryDeps(repo.DocumentRepo)),
		CompanyFiles:  library.NewCompanyFiles(libraryDeps(repo.CompanyFileRepo)),
		Notifications: infra.Notifications,
	}
}
