package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	constructors := []interface{}{
		NewSignInController,
		NewSignOutController,
		NewStatusController,
		NewListController,
		NewSaveController,
		NewDeleteController,
		NewUploadController,
		NewDeleteMediaController,
		NewDeployController,
		NewControllers,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}
	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	signInController *SignInController,
	signOutController *SignOutController,
	statusController *StatusController,
	listController *ListController,
	saveController *SaveController,
	deleteController *DeleteController,
	uploadController *UploadController,
	deleteMediaController *DeleteMediaController,
	deployController *DeployController,
) *[]entities.Controller {
	return &[]entities.Controller{
		signInController,
		signOutController,
		statusController,
		listController,
		saveController,
		deleteController,
		uploadController,
		deleteMediaController,
		deployController,
	}
}
