// Package agent talks to the remote video analysis service.
//
// The service exposes three endpoints: multipart upload, JSON chat and a
// health probe. Uploaded videos are served back under /videos/.
package agent

import (
	"context"
	"io"
)

// Service is the remote processing and inference backend.
type Service interface {
	// Upload streams a local video to the service, which ingests it and
	// assigns an id. name is the file's base name; the service validates
	// its extension and serves the media back under it.
	Upload(ctx context.Context, name string, r io.Reader) (UploadResult, error)

	// Chat sends one user message bound to an ingested video and thread.
	Chat(ctx context.Context, req ChatRequest) (ChatReply, error)

	// Health probes the service root.
	Health(ctx context.Context) (HealthStatus, error)
}

// UploadResult is the body of a successful upload.
type UploadResult struct {
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
}

// ChatRequest is the body of a chat call. ThreadID is the session token.
type ChatRequest struct {
	Message  string `json:"message"`
	VideoID  string `json:"video_id"`
	ThreadID string `json:"thread_id"`
}

// ChatReply is the body of a successful chat call.
type ChatReply struct {
	Response string `json:"response"`
}

// HealthStatus is the body of the health probe.
type HealthStatus struct {
	Status string `json:"status"`
}

// OK reports whether the service declared itself healthy.
func (h HealthStatus) OK() bool {
	return h.Status == "ok"
}
