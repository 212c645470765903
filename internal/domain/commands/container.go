package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register command constructors
	constructors := []interface{}{
		NewSignInCommand,
		NewSignOutCommand,
		NewStatusCommand,
		NewListFilesCommand,
		NewSaveEntryCommand,
		NewDeleteEntriesCommand,
		NewUploadMediaCommand,
		NewDeleteMediaCommand,
		NewDeployCommand,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Bind interfaces to implementations
	bindings := []interface{}{
		func(impl *SignInCommand) SignIn { return impl },
		func(impl *SignOutCommand) SignOut { return impl },
		func(impl *StatusCommand) Status { return impl },
		func(impl *ListFilesCommand) ListFiles { return impl },
		func(impl *SaveEntryCommand) SaveEntry { return impl },
		func(impl *DeleteEntriesCommand) DeleteEntries { return impl },
		func(impl *UploadMediaCommand) UploadMedia { return impl },
		func(impl *DeleteMediaCommand) DeleteMedia { return impl },
		func(impl *DeployCommand) Deploy { return impl },
	}
	for _, binding := range bindings {
		if err := container.Provide(binding); err != nil {
			return err
		}
	}

	return nil
}
