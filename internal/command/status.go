package command

import (
	"fmt"
	"strings"

	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	connectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	notConnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	metaStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-platform connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			settings, err := cmdCtx.Store.GetSettings()
			if err != nil {
				return err
			}

			var b strings.Builder
			for _, p := range types.AllPlatforms {
				conn := settings.ConnectionStatus[p]
				b.WriteString(renderConnection(p, conn))
				b.WriteString(metaStyle.Render(fmt.Sprintf("  (%s)", settings.Methods[p])))
				b.WriteString("\n")
			}
			if !settings.Cloudinary.Configured() {
				b.WriteString(metaStyle.Render("image host not configured: dev.to is excluded from default targets"))
				b.WriteString("\n")
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
}

func renderConnection(p types.Platform, conn types.PlatformConnection) string {
	if conn.Status == types.StatusConnected && conn.ProfileName != nil {
		return fmt.Sprintf("%s %-9s %s", connectedStyle.Render("●"), p.DisplayName(), *conn.ProfileName)
	}
	return fmt.Sprintf("%s %-9s not connected", notConnectedStyle.Render("○"), p.DisplayName())
}
