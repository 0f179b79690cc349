package platform

import (
	"testing"

	"github.com/Shub3am/PostPilot/internal/types"
)

func TestHashtagLine(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"plain tags", []string{"golang", "testing"}, "#golang #testing"},
		{"already prefixed", []string{"#golang", "web"}, "#golang #web"},
		{"empty tags skipped", []string{"", "golang", ""}, "#golang"},
		{"no tags", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashtagLine(tt.tags); got != tt.want {
				t.Errorf("HashtagLine(%v) = %q, want %q", tt.tags, got, tt.want)
			}
		})
	}
}

func TestComposeBody(t *testing.T) {
	req := types.PublishRequest{
		Title:   "Hello",
		Content: "Body text.",
		Tags:    []string{"golang", "#web"},
	}
	want := "Hello\n\nBody text.\n\n#golang #web"
	if got := ComposeBody(req); got != want {
		t.Errorf("ComposeBody = %q, want %q", got, want)
	}
}

func TestComposeBodyWithoutTags(t *testing.T) {
	req := types.PublishRequest{Title: "Hello", Content: "Body text."}
	want := "Hello\n\nBody text."
	if got := ComposeBody(req); got != want {
		t.Errorf("ComposeBody = %q, want %q", got, want)
	}
}
