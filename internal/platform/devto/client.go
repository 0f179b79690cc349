// Package devto publishes through the dev.to (Forem) REST API, v1.
// https://developers.forem.com/api/v1
package devto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Shub3am/PostPilot/internal/platform"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
)

// DefaultBaseURL is the dev.to API root.
const DefaultBaseURL = "https://dev.to/api"

// maxTags is dev.to's article tag limit: the first four tags are kept in
// order, extras are silently dropped.
const maxTags = 4

// Uploader turns an inline-encoded image into a public URL before the
// article is submitted.
type Uploader interface {
	Upload(ctx context.Context, dataURI string) (string, error)
}

// Client is the API adapter for dev.to.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      *store.Store
	Uploader   Uploader
}

// New creates a dev.to client backed by the given store and image host.
func New(st *store.Store, uploader Uploader) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Store:      st,
		Uploader:   uploader,
	}
}

var _ platform.Adapter = (*Client)(nil)

// Name implements platform.Adapter.
func (c *Client) Name() types.Platform {
	return types.PlatformDevto
}

func (c *Client) token() (string, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return "", err
	}
	token := settings.Tokens[types.PlatformDevto]
	if token == "" {
		return "", fmt.Errorf("dev.to: %w", platform.ErrMissingCredential)
	}
	return token, nil
}

type user struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
}

// CheckConnection verifies the stored token against the identity
// endpoint. Any failed or inconclusive probe resets the connection state
// to not-connected with empty profile fields before returning.
func (c *Client) CheckConnection(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return c.verifyFailed(fmt.Errorf("dev.to: %w: %v", platform.ErrIdentityVerificationFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.verifyFailed(fmt.Errorf("dev.to: %w: status %d", platform.ErrIdentityVerificationFailed, resp.StatusCode))
	}

	var u user
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return c.verifyFailed(fmt.Errorf("dev.to: %w: decode user: %v", platform.ErrIdentityVerificationFailed, err))
	}
	if u.Name == "" || u.ProfileImage == "" {
		return c.verifyFailed(fmt.Errorf("dev.to: %w: incomplete profile", platform.ErrIdentityVerificationFailed))
	}

	return c.Store.SetConnection(types.PlatformDevto, types.Connected(u.Name, u.ProfileImage))
}

// verifyFailed normalizes state to not-connected so a failed probe never
// leaves stale connected data behind.
func (c *Client) verifyFailed(cause error) error {
	if err := c.Store.SetConnection(types.PlatformDevto, types.NotConnected()); err != nil {
		return fmt.Errorf("%v (reset connection: %w)", cause, err)
	}
	return cause
}

type articleRequest struct {
	Article articleBody `json:"article"`
}

type articleBody struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	MainImage    *string  `json:"main_image"`
	Tags         []string `json:"tags"`
}

type articleResponse struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	CoverImage   *string  `json:"cover_image"`
	Tags         []string `json:"tags"`
	URL          string   `json:"url"`
}

// Publish submits the article. When an image is present it is first
// uploaded to the image host and the returned URL substituted. The
// response must be exactly 201 Created; any other status, including a
// generic 2xx, is a publish failure. On success the history record is
// built from the response body, so it reflects what dev.to actually
// persisted rather than what was sent.
func (c *Client) Publish(ctx context.Context, req types.PublishRequest) error {
	token, err := c.token()
	if err != nil {
		return err
	}

	var mainImage *string
	if req.Image != nil {
		url, err := c.Uploader.Upload(ctx, *req.Image)
		if err != nil {
			return fmt.Errorf("dev.to: %w: %v", platform.ErrImageUploadFailed, err)
		}
		mainImage = &url
	}

	tags := req.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	payload, err := json.Marshal(articleRequest{Article: articleBody{
		Title:        req.Title,
		BodyMarkdown: req.Content,
		Published:    true,
		MainImage:    mainImage,
		Tags:         tags,
	}})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/articles", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", token)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("dev.to: %w: %v", platform.ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("dev.to: %w: status %d, expected 201 Created", platform.ErrPublishFailed, resp.StatusCode)
	}

	var article articleResponse
	if err := json.NewDecoder(resp.Body).Decode(&article); err != nil {
		return fmt.Errorf("dev.to: %w: decode response: %v", platform.ErrPublishFailed, err)
	}

	return c.Store.AddHistory(types.HistoryRecord{
		Title:    article.Title,
		Content:  article.BodyMarkdown,
		Tags:     article.Tags,
		Image:    article.CoverImage,
		PostedOn: types.PlatformDevto.DisplayName(),
	})
}
