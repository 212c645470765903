package entities

import "github.com/spf13/cobra"

// ControllerBind is the Cobra metadata a controller exposes.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
	Args  cobra.PositionalArgs
}

// Controller is a CLI subcommand.
type Controller interface {
	GetBind() ControllerBind
	Execute(cmd *cobra.Command, args []string) error
}

// FlagController is a Controller with flags of its own.
type FlagController interface {
	Controller
	AddFlags(cmd *cobra.Command)
}
