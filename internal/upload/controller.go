// Package upload stages a local video and turns it into a registered
// entity by sending it to the remote service.
//
// At most one upload is in flight per Controller. A second submit while
// one is running is rejected, never queued.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/cachemanager"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/video"
)

// DefaultErrorMessage is shown when an upload fails for any reason.
const DefaultErrorMessage = "Failed to upload/process video. Ensure backend is running."

// DefaultPreviewTTL bounds how long a probed preview is reused.
const DefaultPreviewTTL = 10 * time.Minute

var (
	ErrNothingStaged  = errors.New("no file staged")
	ErrUploadInFlight = errors.New("upload already in progress")
)

// Registrar receives videos once the service has ingested them.
type Registrar interface {
	RegisterVideo(e video.Entity)
}

// Uploader is the part of agent.Service the controller needs.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (agent.UploadResult, error)
}

// Config configures a Controller.
type Config struct {
	Registrar    Registrar
	Service      Uploader
	ErrorMessage string

	// Cache stores probed previews. Defaults to an in-memory cache.
	Cache      cachemanager.CacheManager[string, Preview]
	PreviewTTL time.Duration
}

// Job is one upload begun by Begin. Pass it back to Complete.
type Job struct {
	File StagedFile
	seq  uint64
}

// Controller owns the staged file and the in-flight upload.
type Controller struct {
	mu sync.Mutex

	registrar Registrar
	service   Uploader
	errorMsg  string

	previews   *cachemanager.ReadThroughCache[string, Preview, probeInput]
	previewTTL time.Duration

	staged    *StagedFile
	errText   string
	uploading bool
	seq       uint64
}

// New builds a Controller.
func New(cfg Config) *Controller {
	cache := cfg.Cache
	if cache == nil {
		cache = cachemanager.NewInMemoryCacheManager[string, Preview](
			"upload-preview", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	}
	ttl := cfg.PreviewTTL
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	msg := cfg.ErrorMessage
	if msg == "" {
		msg = DefaultErrorMessage
	}

	return &Controller{
		registrar:  cfg.Registrar,
		service:    cfg.Service,
		errorMsg:   msg,
		previews:   cachemanager.NewReadThroughCache[string, Preview, probeInput](cache, probe, false),
		previewTTL: ttl,
	}
}

// SelectFile stages path, replacing any previous file and clearing the
// error. It fails only when path cannot be read or is a directory; the
// previous file then stays staged. No network call is made.
func (c *Controller) SelectFile(ctx context.Context, path string) error {
	staged, err := c.stage(ctx, path)
	if err != nil {
		log.Warn(log.CatUpload, "Cannot stage file", "path", path, "error", err)
		return err
	}

	c.mu.Lock()
	c.staged = &staged
	c.errText = ""
	c.mu.Unlock()

	log.Debug(log.CatUpload, "File staged", "path", staged.Path, "size", staged.Preview.Size,
		"contentType", staged.Preview.ContentType, "isVideo", staged.Preview.IsVideo)
	return nil
}

func (c *Controller) stage(ctx context.Context, path string) (StagedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return StagedFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return StagedFile{}, fmt.Errorf("%s is a directory", path)
	}

	preview, err := c.previews.GetWithRefresh(ctx, previewKey(path, info), probeInput{path: path, info: info}, c.previewTTL)
	if err != nil {
		return StagedFile{}, fmt.Errorf("probing %s: %w", path, err)
	}

	return StagedFile{
		Path:    path,
		Name:    filepath.Base(path),
		ModTime: info.ModTime(),
		Preview: preview,
	}, nil
}

// Refresh re-probes the staged file after it changed on disk. A file that
// vanished stays staged; the next submit reports the failure.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.staged == nil || c.uploading {
		c.mu.Unlock()
		return nil
	}
	path := c.staged.Path
	c.mu.Unlock()

	staged, err := c.stage(ctx, path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged != nil && c.staged.Path == path && !c.uploading {
		c.staged = &staged
	}
	return nil
}

// Begin marks an upload in flight. It returns false when nothing is staged
// or an upload is already running.
func (c *Controller) Begin() (Job, bool) {
	job, err := c.begin()
	return job, err == nil
}

func (c *Controller) begin() (Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploading {
		return Job{}, ErrUploadInFlight
	}
	if c.staged == nil {
		return Job{}, ErrNothingStaged
	}

	c.uploading = true
	c.seq++
	log.Info(log.CatUpload, "Upload started", "name", c.staged.Name, "size", c.staged.Preview.Size)
	return Job{File: *c.staged, seq: c.seq}, nil
}

// Complete finishes job with the service outcome. On success the entity is
// registered, the staged file is cleared and (entity, true) is returned. On
// failure the error message is set and the staged file is kept.
func (c *Controller) Complete(job Job, result agent.UploadResult, err error) (video.Entity, bool) {
	c.mu.Lock()
	if !c.uploading || job.seq != c.seq {
		c.mu.Unlock()
		log.Debug(log.CatUpload, "Ignoring completion for unknown job", "name", job.File.Name)
		return video.Entity{}, false
	}
	c.uploading = false

	if err == nil && result.VideoID == "" {
		err = fmt.Errorf("%w: empty video id", agent.ErrMalformedResponse)
	}
	if err != nil {
		c.errText = c.errorMsg
		c.mu.Unlock()
		log.ErrorErr(log.CatUpload, "Upload failed", err, "name", job.File.Name)
		return video.Entity{}, false
	}

	entity := video.Entity{ID: result.VideoID, Filename: job.File.Name}
	c.staged = nil
	c.errText = ""
	c.mu.Unlock()

	log.Info(log.CatUpload, "Upload complete", "videoID", entity.ID, "name", entity.Filename)
	if c.registrar != nil {
		c.registrar.RegisterVideo(entity)
	}
	return entity, true
}

// Submit runs a whole upload synchronously.
func (c *Controller) Submit(ctx context.Context) (video.Entity, error) {
	job, err := c.begin()
	if err != nil {
		return video.Entity{}, err
	}

	result, err := Transfer(ctx, c.service, job)
	entity, ok := c.Complete(job, result, err)
	if !ok {
		if err == nil {
			err = agent.ErrMalformedResponse
		}
		return video.Entity{}, fmt.Errorf("uploading %s: %w", job.File.Name, err)
	}
	return entity, nil
}

// Transfer opens the job's file and streams it to svc. Panics in svc are
// returned as upload failures so the caller can always Complete.
func Transfer(ctx context.Context, svc Uploader, job Job) (result agent.UploadResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &agent.Error{Op: "upload video", Kind: agent.KindUpload, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if svc == nil {
		return agent.UploadResult{}, &agent.Error{Op: "upload video", Kind: agent.KindUpload, Err: errors.New("no service configured")}
	}

	f, err := os.Open(job.File.Path) // #nosec G304 -- user-chosen file
	if err != nil {
		return agent.UploadResult{}, &agent.Error{Op: "upload video", Kind: agent.KindUpload, Err: err}
	}
	defer func() { _ = f.Close() }()

	return svc.Upload(ctx, job.File.Name, f)
}

// Clear drops the staged file and error. Ignored while uploading.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uploading {
		return
	}
	c.staged = nil
	c.errText = ""
}

// Staged returns the staged file, if any.
func (c *Controller) Staged() (StagedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged == nil {
		return StagedFile{}, false
	}
	return *c.staged, true
}

// ErrorMessage returns the user-visible error, or "".
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errText
}

// Uploading reports whether an upload is in flight.
func (c *Controller) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}
