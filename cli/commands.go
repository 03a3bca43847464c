package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"servex-board/board"
)

// NewRootCmd builds the command tree around a wired controller.
func NewRootCmd(ctrl *board.Controller) *cobra.Command {
	root := &cobra.Command{
		Use:           "servex-board",
		Short:         "Staff kanban board for service request workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBoardCmd(ctrl))
	root.AddCommand(newServicesCmd(ctrl))
	return root
}

func newBoardCmd(ctrl *board.Controller) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board session",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctrl.Close()
			return NewSession(ctrl, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}

func newServicesCmd(ctrl *board.Controller) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the services available to this account",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctrl.Close()
			ctrl.Start(cmd.Context())
			snap := ctrl.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), RenderServices(snap.Services, snap.SelectedService))
			return nil
		},
	}
}
