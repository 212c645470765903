package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal/domain/commands"
	"github.com/rios0rios0/headcms/internal/domain/entities"
)

// SignInController handles the "signin" subcommand.
type SignInController struct {
	command commands.SignIn
}

// NewSignInController creates a new SignInController.
func NewSignInController(command commands.SignIn) *SignInController {
	return &SignInController{command: command}
}

// GetBind returns the Cobra command metadata for the signin controller.
func (it *SignInController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "signin",
		Short: "Sign in to the configured backend",
		Long: `Sign in to the Git hosting service configured in the site config.
Uses --token, the backend token of the config or the provider's environment
variable. With --interactive and no token, opens the OAuth authorization flow
in the browser and stores the resulting session.`,
		Args: cobra.NoArgs,
	}
}

// AddFlags adds signin-specific flags.
func (it *SignInController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("interactive", "i", false,
		"Start the browser authorization flow when no token is available")
}

// Execute runs the sign-in.
func (it *SignInController) Execute(cmd *cobra.Command, _ []string) error {
	settings, opts, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	interactive, _ := cmd.Flags().GetBool("interactive")

	result, err := it.command.Execute(contextOf(cmd), settings, commands.SignInOptions{
		BackendOptions: opts.BackendOptions(),
		Interactive:    interactive,
		OpenURL: func(authURL string) error {
			_, printErr := fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize headcms:\n\n  %s\n\n", authURL)
			return printErr
		},
	})
	if err != nil {
		logger.Errorf("Sign-in failed: %v", err)
		return err
	}

	logger.Infof("Repository: %s (branch %s)", result.Repository.FullName(), result.Repository.Branch)
	return nil
}
