package agent

import (
	"net/url"
	"strings"
)

// MediaURL returns where the service serves an uploaded video back.
// The filename is path-escaped as a single segment.
func MediaURL(baseURL, filename string) string {
	return strings.TrimRight(baseURL, "/") + "/videos/" + url.PathEscape(filename)
}

// ThumbnailURL points at the frame one second in, for players that honor
// media fragments.
func ThumbnailURL(baseURL, filename string) string {
	return MediaURL(baseURL, filename) + "#t=1"
}
