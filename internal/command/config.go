package command

import (
	"fmt"

	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command tree.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tokens, publish methods and the image host",
	}

	cmd.AddCommand(
		newConfigTokenCmd(),
		newConfigMethodCmd(),
		newConfigImageHostCmd(),
		newConfigShowCmd(),
	)
	return cmd
}

func newConfigTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <platform> <token>",
		Short: "Store an API token for a platform",
		Args:  cobra.ExactArgs(2),
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

			settings, err := cmdCtx.Store.GetSettings()
			if err != nil {
				return err
			}
			settings.Tokens[p] = args[1]
			if err := cmdCtx.Store.SetSettings(settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token stored for %s\n", p.DisplayName())
			return nil
		},
	}
}

func newConfigMethodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "method <platform> <api|scrape>",
		Short: "Set how a platform is published to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := types.ParsePlatform(args[0])
			if !ok {
				return fmt.Errorf("unknown platform: %s", args[0])
			}
			method := types.Method(args[1])
			if method != types.MethodAPI && method != types.MethodScrape {
				return fmt.Errorf("method must be api or scrape")
			}
			if method != p.Transport() {
				return fmt.Errorf("%s publishes via %s only", p.DisplayName(), p.Transport())
			}

			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			settings, err := cmdCtx.Store.GetSettings()
			if err != nil {
				return err
			}
			settings.Methods[p] = method
			if err := cmdCtx.Store.SetSettings(settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now publishes via %s\n", p.DisplayName(), method)
			return nil
		},
	}
}

func newConfigImageHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imagehost <cloud-name> <unsigned-preset>",
		Short: "Configure the Cloudinary unsigned upload target",
		Args:  cobra.ExactArgs(2),
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
			settings.Cloudinary = types.CloudinaryConfig{
				CloudName:      args[0],
				UnsignedPreset: args[1],
			}
			if err := cmdCtx.Store.SetSettings(settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Image host configured.")
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
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

			for _, p := range types.AllPlatforms {
				token := "unset"
				if settings.Tokens[p] != "" {
					token = "set"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s method=%-6s token=%s\n", p.DisplayName(), settings.Methods[p], token)
			}
			if settings.Cloudinary.Configured() {
				fmt.Fprintf(cmd.OutOrStdout(), "imagehost cloud=%s preset=%s\n",
					settings.Cloudinary.CloudName, settings.Cloudinary.UnsignedPreset)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "imagehost unset")
			}
			return nil
		},
	}
}

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset settings and history to first-run defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			if err := cmdCtx.Store.ClearAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Storage reset.")
			return nil
		},
	}
}
