// Package media holds helpers for the lesson videos hosted on YouTube.
package media

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var videoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/embed/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/watch\?v=([\w-]+)`),
	regexp.MustCompile(`youtu\.be/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/v/([\w-]+)`),
}

var isoDuration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// Thumbnail sizes
const (
	ThumbDefault = "default"
	ThumbMedium  = "mq"
	ThumbHigh    = "hq"
	ThumbSD      = "sd"
	ThumbMax     = "maxres"
)

// VideoID extracts the video id from the usual YouTube URL forms
func VideoID(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	for _, p := range videoPatterns {
		if m := p.FindStringSubmatch(url); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// EmbedURL rewrites any recognised video URL to its embed form.
// Unrecognised URLs come back unchanged.
func EmbedURL(url string) string {
	id, ok := VideoID(url)
	if !ok {
		return url
	}
	return "https://www.youtube.com/embed/" + id
}

// Thumbnail returns the still image URL for a video, empty when url is not a video
func Thumbnail(url, quality string) string {
	id, ok := VideoID(url)
	if !ok {
		return ""
	}
	switch quality {
	case ThumbMedium, ThumbSD, ThumbMax:
	case "", ThumbHigh:
		quality = ThumbHigh
	default:
		quality = ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%sdefault.jpg", id, quality)
}

// ParseISODuration reads the PT#H#M#S durations of the YouTube API.
// Anything else is zero.
func ParseISODuration(s string) time.Duration {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var total time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += time.Duration(n) * unit
	}
	return total
}

// FormatDuration renders d as "m:ss mins" or "h:mm:ss hrs"
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d hrs", h, m, s)
	}
	return fmt.Sprintf("%d:%02d mins", m, s)
}
