package command

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/spf13/cobra"
)

// NewPostCmd creates the post command.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post to one or more platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := GetContext(cmd)
			if err != nil {
				return err
			}
			defer cmdCtx.Close()

			title, _ := cmd.Flags().GetString("title")
			body, _ := cmd.Flags().GetString("body")
			bodyFile, _ := cmd.Flags().GetString("file")
			tags, _ := cmd.Flags().GetStringSlice("tags")
			imagePath, _ := cmd.Flags().GetString("image")
			to, _ := cmd.Flags().GetStringSlice("to")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			if title == "" {
				return fmt.Errorf("--title is required")
			}
			if body == "" && bodyFile == "" {
				return fmt.Errorf("one of --body or --file is required")
			}
			if body != "" && bodyFile != "" {
				return fmt.Errorf("--body and --file are mutually exclusive")
			}
			if bodyFile != "" {
				raw, err := os.ReadFile(bodyFile)
				if err != nil {
					return err
				}
				body = string(raw)
			}

			req := types.PublishRequest{
				Title:   title,
				Content: body,
				Tags:    tags,
			}
			if imagePath != "" {
				dataURI, err := encodeImage(imagePath)
				if err != nil {
					return err
				}
				req.Image = &dataURI
			}

			platforms, err := resolveTargets(cmdCtx, to)
			if err != nil {
				return err
			}
			if len(platforms) == 0 {
				return fmt.Errorf("no target platforms: connect an account or pass --to")
			}

			r, err := cmdCtx.Router(cmd.Context(), cmdCtx.NeedsBrowser(platforms))
			if err != nil {
				return err
			}

			names := make([]string, len(platforms))
			for i, p := range platforms {
				names[i] = p.DisplayName()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Publishing %q to %s...\n", title, strings.Join(names, ", "))

			r.CreatePost(cmd.Context(), req, platforms)

			waitCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := r.Wait(waitCtx); err != nil {
				return fmt.Errorf("timed out waiting for publish sessions: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringP("title", "t", "", "post title")
	cmd.Flags().StringP("body", "b", "", "post body")
	cmd.Flags().StringP("file", "f", "", "read the post body from a file")
	cmd.Flags().StringSlice("tags", nil, "comma-separated tags")
	cmd.Flags().String("image", "", "attach an image file")
	cmd.Flags().StringSlice("to", nil, "target platforms (default: all connected)")
	cmd.Flags().Duration("timeout", 2*time.Minute, "how long to wait for automation sessions")

	return cmd
}

// resolveTargets turns --to values into platforms, defaulting to every
// connected platform when the flag is absent.
func resolveTargets(cmdCtx *CommandContext, to []string) ([]types.Platform, error) {
	if len(to) == 0 {
		return cmdCtx.Store.ConnectedPlatforms()
	}
	platforms := make([]types.Platform, 0, len(to))
	for _, raw := range to {
		p, ok := types.ParsePlatform(strings.TrimSpace(raw))
		if !ok {
			return nil, fmt.Errorf("unknown platform: %s", raw)
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// encodeImage reads an image file into an inline data URI.
func encodeImage(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw)), nil
}
