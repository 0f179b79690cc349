// Package imagehost uploads inline-encoded images to Cloudinary's
// unsigned upload endpoint and returns a public URL. dev.to requires an
// externally hosted image; the scrape platforms attach images directly.
package imagehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Shub3am/PostPilot/internal/types"
)

// DefaultBaseURL is the Cloudinary API root.
const DefaultBaseURL = "https://api.cloudinary.com"

// ErrNotConfigured is returned when the cloud name or unsigned preset is
// missing from settings.
var ErrNotConfigured = errors.New("image host not configured")

// Client performs unsigned uploads.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Config     types.CloudinaryConfig
}

// New creates a client for the given Cloudinary settings.
func New(cfg types.CloudinaryConfig) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Config:     cfg,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload posts the data-URI image as an unsigned multipart upload and
// returns the hosted URL.
func (c *Client) Upload(ctx context.Context, dataURI string) (string, error) {
	if !c.Config.Configured() {
		return "", ErrNotConfigured
	}

	var body strings.Builder
	form := multipart.NewWriter(&body)
	if err := form.WriteField("file", dataURI); err != nil {
		return "", err
	}
	if err := form.WriteField("upload_preset", c.Config.UnsignedPreset); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1_1/%s/image/upload", c.BaseURL, c.Config.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload image: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("upload image: decode response: %w", err)
	}
	if parsed.SecureURL != "" {
		return parsed.SecureURL, nil
	}
	if parsed.URL != "" {
		return parsed.URL, nil
	}
	return "", errors.New("upload image: response had no URL")
}
