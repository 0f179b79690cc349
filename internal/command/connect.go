package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/spf13/cobra"
)

// NewConnectCmd creates the connect command.
func NewConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect <platform>",
		Short: "Check a platform connection and refresh its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := types.ParsePlatform(args[0])
			if !ok {
				return fmt.Errorf("unknown platform: %s", args[0])
			}

			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			r, err := cmdCtx.Router(cmd.Context(), cmdCtx.NeedsBrowser([]types.Platform{p}))
			if err != nil {
				return err
			}

			timeout, _ := cmd.Flags().GetDuration("timeout")
			if err := r.CheckConnection(cmd.Context(), p); err != nil {
				return err
			}

			waitCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := r.Wait(waitCtx); err != nil {
				return fmt.Errorf("timed out waiting for connection check: %w", err)
			}

			conn, err := cmdCtx.Store.GetConnection(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderConnection(p, conn))
			return nil
		},
	}

	cmd.Flags().Duration("timeout", time.Minute, "how long to wait for the connection probe")
	return cmd
}

// NewDisconnectCmd creates the disconnect command.
func NewDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <platform>",
		Short: "Reset a platform to not connected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := types.ParsePlatform(args[0])
			if !ok {
				return fmt.Errorf("unknown platform: %s", args[0])
			}

			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			if err := cmdCtx.Store.Disconnect(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disconnected %s\n", p.DisplayName())
			return nil
		},
	}
}
