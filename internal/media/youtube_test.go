package media

import (
	"testing"
	"time"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ", true},
		{"https://youtu.be/abc-_12", "abc-_12", true},
		{"https://youtube.com/v/xyz", "xyz", true},
		{"https://vimeo.com/123", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := VideoID(tt.url)
		if got != tt.want || ok != tt.ok {
			t.Errorf("VideoID(%q) = %q, %v", tt.url, got, ok)
		}
	}
}

func TestEmbedAndThumbnail(t *testing.T) {
	if got := EmbedURL("https://youtu.be/abc"); got != "https://www.youtube.com/embed/abc" {
		t.Errorf("embed = %q", got)
	}
	if got := EmbedURL("https://example.com/video.mp4"); got != "https://example.com/video.mp4" {
		t.Errorf("non-video url changed: %q", got)
	}
	if got := Thumbnail("https://youtu.be/abc", ""); got != "https://img.youtube.com/vi/abc/hqdefault.jpg" {
		t.Errorf("thumbnail = %q", got)
	}
	if got := Thumbnail("https://youtu.be/abc", ThumbDefault); got != "https://img.youtube.com/vi/abc/default.jpg" {
		t.Errorf("default thumbnail = %q", got)
	}
	if got := Thumbnail("nope", ThumbMax); got != "" {
		t.Errorf("thumbnail for non-video = %q", got)
	}
}

func TestParseISODuration(t *testing.T) {
	tests := map[string]time.Duration{
		"PT1H22M48S": time.Hour + 22*time.Minute + 48*time.Second,
		"PT4M":       4 * time.Minute,
		"PT59S":      59 * time.Second,
		"P1D":        0,
		"":           0,
	}
	for in, want := range tests {
		if got := ParseISODuration(in); got != want {
			t.Errorf("ParseISODuration(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(4968 * time.Second); got != "1:22:48 hrs" {
		t.Errorf("got %q", got)
	}
	if got := FormatDuration(65 * time.Second); got != "1:05 mins" {
		t.Errorf("got %q", got)
	}
	if got := FormatDuration(0); got != "0:00 mins" {
		t.Errorf("got %q", got)
	}
}
