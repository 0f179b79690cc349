package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "postpilot"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

// NewRootCmd builds the postpilot command tree.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "PostPilot - publish one post to every platform",
		Long:          "PostPilot publishes a single post to dev.to, LinkedIn and X from one place.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("data-dir", "", "override the data directory")
	cmd.PersistentFlags().Bool("silent", false, "log outcomes instead of sending desktop notifications")

	cmd.AddCommand(
		NewPostCmd(),
		NewComposeCmd(),
		NewConnectCmd(),
		NewDisconnectCmd(),
		NewStatusCmd(),
		NewHistoryCmd(),
		NewConfigCmd(),
		NewResetCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(Version).Execute()
}
