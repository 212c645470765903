package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/headcms/internal"
	"github.com/rios0rios0/headcms/internal/domain/entities"
	"github.com/rios0rios0/headcms/internal/infrastructure/controllers"
)

func buildRootCommand() *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "headcms",
		Short: "Git-backed headless CMS backend",
		Long: `Edit the content of a static site stored in a Git repository.

Entries and media files are resolved to repository paths from the collections
of the site config, and every edit becomes a single commit on the configured
branch. Supports GitHub, GitLab, Gitea/Forgejo and local directories.

Global flags can also be set through HEADCMS_CONFIG, HEADCMS_LOCAL,
HEADCMS_TOKEN and HEADCMS_VERBOSE.`,
		SilenceUsage: true,
	}

	controllers.AddGlobalFlags(cmd)
	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Args:  bind.Args,
			RunE: func(command *cobra.Command, arguments []string) error {
				return ctrl.Execute(command, arguments)
			},
		}

		if fc, ok := ctrl.(entities.FlagController); ok {
			fc.AddFlags(subCmd)
		}

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	cobraRoot := buildRootCommand()
	addSubcommands(cobraRoot, injectAppContext())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cobraRoot.ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatalf("Error executing 'headcms': %s", err)
	}
}
