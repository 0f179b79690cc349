package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List published posts, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			records, err := cmdCtx.Store.History()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No posts published yet.")
				return nil
			}

			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
					titleStyle.Render(rec.Title),
					metaStyle.Render("on "+rec.PostedOn))
				if len(rec.Tags) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), tagStyle.Render("  #"+strings.Join(rec.Tags, " #")))
				}
				if rec.Image != nil {
					fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("  image: "+*rec.Image))
				}
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			if err := cmdCtx.Store.ClearHistory(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	})

	return cmd
}
