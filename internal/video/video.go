// Package video holds the entity produced by a successful upload.
package video

import (
	"mime"
	"path/filepath"
	"strings"
)

// Entity is a video ingested by the remote service during this run.
// Entities are immutable once registered.
type Entity struct {
	// ID is assigned by the service and unique within a registry.
	ID string
	// Filename is the local base name at upload time. Not unique.
	Filename string
}

// IDPrefix returns at most the first n runes of the id.
func (e Entity) IDPrefix(n int) string {
	r := []rune(e.ID)
	if len(r) <= n {
		return e.ID
	}
	return string(r[:n])
}

// Extensions the service accepts.
var Extensions = []string{".mp4", ".mov", ".avi", ".mkv"}

var contentTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
	".mkv": "video/x-matroska",
}

// ContentType guesses a MIME type from the file extension.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// HasVideoExtension reports whether name ends in one of exts, ignoring case.
func HasVideoExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
