package types

// Platform identifies one external publishing destination.
type Platform string

const (
	PlatformDevto    Platform = "devto"
	PlatformLinkedin Platform = "linkedin"
	PlatformTwitter  Platform = "twitter"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{PlatformDevto, PlatformLinkedin, PlatformTwitter}

// DisplayName returns the human-facing platform name used in history records.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformDevto:
		return "dev.to"
	case PlatformLinkedin:
		return "Linkedin"
	case PlatformTwitter:
		return "Twitter"
	}
	return string(p)
}

// ParsePlatform resolves a platform from user input.
func ParsePlatform(s string) (Platform, bool) {
	for _, p := range AllPlatforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Method selects how a platform is reached.
type Method string

const (
	MethodAPI    Method = "api"
	MethodScrape Method = "scrape"
)

// Transport returns how the platform is reached: dev.to through its
// REST API, LinkedIn and X through browser automation. This is a fixed
// property of the platform; the stored Methods map mirrors it for
// display but is never authoritative.
func (p Platform) Transport() Method {
	if p == PlatformDevto {
		return MethodAPI
	}
	return MethodScrape
}

// ConnectionStatus is the per-platform connection state.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusNotConnected ConnectionStatus = "not_connected"
)

// PublishRequest is one authored post. Ephemeral: constructed by the UI,
// consumed once by the router, never persisted.
type PublishRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Image   *string  `json:"image"` // inline data URI, nil when absent
}

// PlatformConnection holds the last probed connection state for a platform.
// Status is connected iff both profile fields were non-nil at the last check.
type PlatformConnection struct {
	ProfileName  *string          `json:"profile_name"`
	ProfileImage *string          `json:"profile_image"`
	Status       ConnectionStatus `json:"status"`
}

// NotConnected returns the reset state written after a failed or
// inconclusive check.
func NotConnected() PlatformConnection {
	return PlatformConnection{Status: StatusNotConnected}
}

// Connected builds a connected state from probed profile metadata.
func Connected(name, image string) PlatformConnection {
	return PlatformConnection{
		ProfileName:  &name,
		ProfileImage: &image,
		Status:       StatusConnected,
	}
}

// HistoryRecord is a durable log entry of one successful publish.
// Immutable once created; removed only by bulk clear.
type HistoryRecord struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Image    *string  `json:"image"` // public URL, nil when the post had no image
	PostedOn string   `json:"postedOn"`
}

// CloudinaryConfig holds the unsigned upload settings for the image host.
// Required for dev.to publishes that carry an image.
type CloudinaryConfig struct {
	CloudName      string `json:"cloud_name"`
	UnsignedPreset string `json:"unsigned_preset"`
}

// Configured reports whether the image host can be used.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.UnsignedPreset != ""
}

// Settings is the persisted configuration aggregate.
type Settings struct {
	Tokens           map[Platform]string             `json:"tokens"`
	Cloudinary       CloudinaryConfig                `json:"cloudinary"`
	Methods          map[Platform]Method             `json:"methods"`
	ConnectionStatus map[Platform]PlatformConnection `json:"connectionStatus"`
}

// Storage is the single persisted aggregate: settings plus history,
// most recent history entry first.
type Storage struct {
	Settings Settings        `json:"settings"`
	History  []HistoryRecord `json:"history"`
}

// DefaultStorage returns the initial aggregate written on first run.
func DefaultStorage() Storage {
	return Storage{
		Settings: Settings{
			Tokens: map[Platform]string{
				PlatformDevto:    "",
				PlatformLinkedin: "",
				PlatformTwitter:  "",
			},
			Methods: map[Platform]Method{
				PlatformDevto:    MethodAPI,
				PlatformLinkedin: MethodScrape,
				PlatformTwitter:  MethodScrape,
			},
			ConnectionStatus: map[Platform]PlatformConnection{
				PlatformDevto:    NotConnected(),
				PlatformLinkedin: NotConnected(),
				PlatformTwitter:  NotConnected(),
			},
		},
		History: []HistoryRecord{},
	}
}
