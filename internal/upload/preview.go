package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/zjrosen/vidbrain/internal/video"
)

// sniffLen is how many leading bytes content sniffing reads.
const sniffLen = 512

// Preview describes a staged file locally, before anything is sent.
type Preview struct {
	// URL is a file:// URL for the absolute path.
	URL         string
	Size        int64
	ContentType string
	// IsVideo is advisory only. Non-video files can still be submitted.
	IsVideo bool
}

// HumanSize formats Size for display, e.g. "12 MB".
func (p Preview) HumanSize() string {
	return humanize.Bytes(uint64(max(p.Size, 0)))
}

// StagedFile is the file waiting to be uploaded.
type StagedFile struct {
	Path    string
	Name    string
	ModTime time.Time
	Preview Preview
}

// probeInput is what the preview loader needs to build a Preview.
type probeInput struct {
	path string
	info os.FileInfo
}

// previewKey changes whenever the file is rewritten.
func previewKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s@%d@%d", path, info.ModTime().UnixNano(), info.Size())
}

func probe(_ context.Context, in probeInput) (Preview, error) {
	abs, err := filepath.Abs(in.path)
	if err != nil {
		return Preview{}, fmt.Errorf("resolving path: %w", err)
	}

	contentType, err := sniff(abs)
	if err != nil {
		return Preview{}, err
	}

	return Preview{
		URL:         (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Size:        in.info.Size(),
		ContentType: contentType,
		IsVideo: strings.HasPrefix(contentType, "video/") ||
			video.HasVideoExtension(abs, video.Extensions),
	}, nil
}

// sniff detects the content type from the leading bytes, falling back to
// the extension when the bytes are inconclusive.
func sniff(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-chosen file
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("reading file: %w", err)
	}

	contentType := http.DetectContentType(buf[:n])
	if contentType == "application/octet-stream" || strings.HasPrefix(contentType, "text/plain") {
		if byExt := video.ContentType(path); byExt != "application/octet-stream" {
			return byExt, nil
		}
	}
	return contentType, nil
}
