// Package video classifies external video URLs and derives stable embed and
// thumbnail URLs. Supported platforms are YouTube, Vimeo and Google Drive.
package video

import (
	"fmt"
	"regexp"
)

const (
	PlatformYouTube = "youtube"
	PlatformVimeo   = "vimeo"
	PlatformGDrive  = "gdrive"
)

// Info is the canonical representation of a recognized external video.
type Info struct {
	Platform     string `json:"platform"`
	VideoID      string `json:"videoId"`
	EmbedURL     string `json:"embedUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type pattern struct {
	platform string
	re       *regexp.Regexp
}

// Patterns are tried in order; the first capture group is the video ID.
var patterns = []pattern{
	{PlatformYouTube, regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`)},
	{PlatformYouTube, regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`)},
	{PlatformVimeo, regexp.MustCompile(`vimeo\.com/(\d+)`)},
	{PlatformVimeo, regexp.MustCompile(`player\.vimeo\.com/video/(\d+)`)},
	{PlatformGDrive, regexp.MustCompile(`drive\.google\.com/file/d/([a-zA-Z0-9_-]+)`)},
	{PlatformGDrive, regexp.MustCompile(`drive\.google\.com/open\?id=([a-zA-Z0-9_-]+)`)},
}

// Resolve parses url and returns the platform, canonical ID and derived URLs.
// Unrecognized or empty input returns (nil, false), never an error.
func Resolve(url string) (*Info, bool) {
	if url == "" {
		return nil, false
	}

	for _, p := range patterns {
		match := p.re.FindStringSubmatch(url)
		if match == nil {
			continue
		}
		id := match[1]
		return &Info{
			Platform:     p.platform,
			VideoID:      id,
			EmbedURL:     embedURL(p.platform, id),
			ThumbnailURL: thumbnailURL(p.platform, id),
		}, true
	}

	return nil, false
}

// IsValid reports whether url is a recognized external video link.
func IsValid(url string) bool {
	_, ok := Resolve(url)
	return ok
}

func embedURL(platform, id string) string {
	switch platform {
	case PlatformYouTube:
		return fmt.Sprintf("https://www.youtube.com/embed/%s?rel=0&modestbranding=1", id)
	case PlatformVimeo:
		return fmt.Sprintf("https://player.vimeo.com/video/%s?dnt=1", id)
	case PlatformGDrive:
		return fmt.Sprintf("https://drive.google.com/file/d/%s/preview", id)
	default:
		return ""
	}
}

// thumbnailURL is best-effort: YouTube serves real thumbnails, while the
// Vimeo (vumbnail.com) and Drive URLs are placeholder services that may not
// return an image for every video.
func thumbnailURL(platform, id string) string {
	switch platform {
	case PlatformYouTube:
		return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
	case PlatformVimeo:
		return fmt.Sprintf("https://vumbnail.com/%s.jpg", id)
	case PlatformGDrive:
		return fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w640", id)
	default:
		return ""
	}
}
