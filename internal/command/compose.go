package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shub3am/PostPilot/internal/compose"
	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/spf13/cobra"
)

// NewComposeCmd creates the compose command.
func NewComposeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Draft a post interactively and publish it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			result, err := compose.Run(cmd.Context(), cmdCtx.Store)
			if err != nil {
				return err
			}
			if !result.Submitted {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			req := types.PublishRequest{
				Title:   result.Title,
				Content: result.Body,
				Tags:    result.Tags,
			}
			if result.ImagePath != "" {
				dataURI, err := encodeImage(result.ImagePath)
				if err != nil {
					return err
				}
				req.Image = &dataURI
			}

			r, err := cmdCtx.Router(cmd.Context(), cmdCtx.NeedsBrowser(result.Platforms))
			if err != nil {
				return err
			}

			names := make([]string, len(result.Platforms))
			for i, p := range result.Platforms {
				names[i] = p.DisplayName()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Publishing %q to %s...\n", result.Title, strings.Join(names, ", "))

			r.CreatePost(cmd.Context(), req, result.Platforms)

			timeout, _ := cmd.Flags().GetDuration("timeout")
			waitCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := r.Wait(waitCtx); err != nil {
				return fmt.Errorf("timed out waiting for publish sessions: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Duration("timeout", 2*time.Minute, "how long to wait for automation sessions")
	return cmd
}
