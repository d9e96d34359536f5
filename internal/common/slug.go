package common

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const maxSlugLength = 80

// Slugify converts arbitrary text into a URL and filesystem safe slug:
// lowercase ASCII letters, digits, and single hyphens.
func Slugify(text string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen

	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-', r == '_', r == '.', r == '/':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}

// SlugFromURL derives a stable slug for a source URL. The last URL path
// segment is preferred because it tends to already be a slug; the page
// title is the fallback, and a short random ID covers pathological URLs.
func SlugFromURL(rawURL, title string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		// YouTube watch URLs keep the video ID as the identity
		if id := parsed.Query().Get("v"); id != "" && isYouTubeHost(parsed.Host) {
			if slug := Slugify(id); slug != "" {
				return "video-" + slug
			}
		}

		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(segments) > 0 {
			last := segments[len(segments)-1]
			if idx := strings.LastIndex(last, "."); idx > 0 {
				last = last[:idx]
			}
			if slug := Slugify(last); slug != "" {
				return slug
			}
		}
	}

	if slug := Slugify(title); slug != "" {
		return slug
	}

	return "post-" + uuid.New().String()[:8]
}

// isYouTubeHost reports whether the host belongs to YouTube
func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be" || host == "youtube-nocookie.com"
}

// IsYouTubeURL reports whether a URL points at a YouTube video
func IsYouTubeURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return isYouTubeHost(parsed.Host)
}

// YouTubeVideoID extracts the video ID from watch, share, shorts, and
// embed URL forms. Returns an empty string when no ID can be found.
func YouTubeVideoID(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || !isYouTubeHost(parsed.Host) {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if host == "youtu.be" {
		return strings.Trim(parsed.Path, "/")
	}

	if id := parsed.Query().Get("v"); id != "" {
		return id
	}

	path := strings.Trim(parsed.Path, "/")
	for _, prefix := range []string{"embed/", "shorts/", "live/"} {
		if strings.HasPrefix(path, prefix) {
			return strings.TrimPrefix(path, prefix)
		}
	}
	return ""
}

// NewRunID generates a unique run ID with the "run_" prefix
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
