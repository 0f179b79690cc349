package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/imagehost"
	"github.com/Shub3am/PostPilot/internal/notify"
	"github.com/Shub3am/PostPilot/internal/platform/devto"
	"github.com/Shub3am/PostPilot/internal/platform/linkedin"
	"github.com/Shub3am/PostPilot/internal/platform/twitter"
	"github.com/Shub3am/PostPilot/internal/router"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/spf13/cobra"
)

// AppConfig holds the browser options kept outside the storage
// aggregate, in a plain JSON file next to the database.
type AppConfig struct {
	ProfileDir string `json:"profile_dir,omitempty"`
	Headless   bool   `json:"headless,omitempty"`
	CDPURL     string `json:"cdp_url,omitempty"`
}

// CommandContext carries the shared state a command needs.
type CommandContext struct {
	DataDir   string
	Store     *store.Store
	AppConfig AppConfig
	Notifier  *notify.Desktop

	chrome *browser.Chrome
	router *router.Router
}

// GetContext opens the store and loads configuration for a command.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = os.Getenv("POSTPILOT_DIR")
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(home, ".config", AppName)
	}

	st, err := store.Open(filepath.Join(dataDir, "postpilot.db"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cfg, err := loadAppConfig(dataDir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	silent, _ := cmd.Flags().GetBool("silent")

	return &CommandContext{
		DataDir:   dataDir,
		Store:     st,
		AppConfig: cfg,
		Notifier:  &notify.Desktop{Silent: silent},
	}, nil
}

func loadAppConfig(dataDir string) (AppConfig, error) {
	cfg := AppConfig{ProfileDir: filepath.Join(dataDir, "chrome-profile")}
	data, err := os.ReadFile(filepath.Join(dataDir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return AppConfig{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config.json: %w", err)
	}
	if cfg.ProfileDir == "" {
		cfg.ProfileDir = filepath.Join(dataDir, "chrome-profile")
	}
	return cfg, nil
}

// Router builds the router on first use. needBrowser launches Chrome and
// registers the scrape adapters; API-only operations skip the launch.
func (c *CommandContext) Router(ctx context.Context, needBrowser bool) (*router.Router, error) {
	if c.router != nil && (!needBrowser || c.chrome != nil) {
		return c.router, nil
	}

	if c.router == nil {
		c.router = router.New(c.Store, c.Notifier, router.DefaultConfig())

		settings, err := c.Store.GetSettings()
		if err != nil {
			return nil, err
		}
		uploader := imagehost.New(settings.Cloudinary)
		c.router.Register(devto.New(c.Store, uploader))
	}

	if needBrowser && c.chrome == nil {
		chrome, err := browser.NewChrome(ctx, browser.ChromeConfig{
			CDPURL:     c.AppConfig.CDPURL,
			ProfileDir: c.AppConfig.ProfileDir,
			Headless:   c.AppConfig.Headless,
		})
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		c.chrome = chrome
		c.router.Register(linkedin.New(chrome, c.Store, c.router))
		c.router.Register(twitter.New(chrome, c.Store, c.router))
	}

	return c.router, nil
}

// NeedsBrowser reports whether any of the platforms is scrape-backed.
func (c *CommandContext) NeedsBrowser(platforms []types.Platform) bool {
	for _, p := range platforms {
		if p.Transport() == types.MethodScrape {
			return true
		}
	}
	return false
}

// Close releases the store and, if launched, the browser.
func (c *CommandContext) Close() {
	if c.chrome != nil {
		_ = c.chrome.Close()
	}
	_ = c.Store.Close()
}
