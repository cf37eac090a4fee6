// Package registry tracks every video uploaded during this run and which
// one, if any, is on screen.
//
// The registry is the only writer of the video list and the active id. It
// exposes exactly three mutations: RegisterVideo, SelectVideo and
// StartNewUpload. Each publishes a Change so views can refresh.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/vidbrain/internal/conversation"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/pubsub"
	"github.com/zjrosen/vidbrain/internal/video"
)

// ErrNotFound is returned by SelectVideo for an id that was never registered.
var ErrNotFound = errors.New("video not found")

// Mode is the derived tag of the current View.
type Mode int

const (
	ModeUploading Mode = iota
	ModeConversing
)

func (m Mode) String() string {
	if m == ModeConversing {
		return "conversing"
	}
	return "uploading"
}

// View is what the main pane shows: either the uploader or one conversation.
type View interface {
	mode() Mode
}

// Uploading shows the upload form.
type Uploading struct{}

// Conversing shows the conversation with the active video.
type Conversing struct {
	Session *conversation.Session
}

func (Uploading) mode() Mode  { return ModeUploading }
func (Conversing) mode() Mode { return ModeConversing }

// ChangeKind names a registry mutation.
type ChangeKind string

const (
	VideoRegistered ChangeKind = "video_registered"
	VideoSelected   ChangeKind = "video_selected"
	UploadStarted   ChangeKind = "upload_started"
)

// Change describes one mutation. VideoID is empty for UploadStarted.
type Change struct {
	Kind    ChangeKind
	VideoID string
}

// Config configures the sessions a Registry creates.
type Config struct {
	Greeting string
	Fallback string
	Clock    func() time.Time
}

// Registry owns the videos of this run and the active view.
type Registry struct {
	mu sync.RWMutex

	videos   []video.Entity
	index    map[string]int
	activeID string
	view     View

	cfg    Config
	broker *pubsub.Broker[Change]
}

// New returns an empty registry showing the uploader.
func New(cfg Config) *Registry {
	return &Registry{
		index:  make(map[string]int),
		view:   Uploading{},
		cfg:    cfg,
		broker: pubsub.NewBroker[Change](),
	}
}

// Broker returns the change feed. Subscribers must not mutate the registry
// from their handlers synchronously with Publish.
func (r *Registry) Broker() *pubsub.Broker[Change] {
	return r.broker
}

// Close shuts down the change feed.
func (r *Registry) Close() {
	r.broker.Close()
}

// RegisterVideo appends e and makes it active with a fresh session. It
// always succeeds.
func (r *Registry) RegisterVideo(e video.Entity) {
	r.mu.Lock()
	r.videos = append(r.videos, e)
	r.index[e.ID] = len(r.videos) - 1
	r.activate(e.ID)
	r.mu.Unlock()

	log.Info(log.CatRegistry, "Video registered", "videoID", e.ID, "filename", e.Filename)
	r.broker.Publish(pubsub.CreatedEvent, Change{Kind: VideoRegistered, VideoID: e.ID})
}

// SelectVideo makes id active with a fresh session, discarding the current
// one. An unknown id leaves the registry untouched and returns ErrNotFound.
func (r *Registry) SelectVideo(id string) error {
	r.mu.Lock()
	if _, ok := r.index[id]; !ok {
		r.mu.Unlock()
		log.Error(log.CatRegistry, "Select of unknown video", "videoID", id)
		return fmt.Errorf("select %q: %w", id, ErrNotFound)
	}
	r.activate(id)
	r.mu.Unlock()

	log.Debug(log.CatRegistry, "Video selected", "videoID", id)
	r.broker.Publish(pubsub.UpdatedEvent, Change{Kind: VideoSelected, VideoID: id})
	return nil
}

// StartNewUpload shows the uploader. The previously active id is retained
// for LastActiveID but ActiveVideoID reports none.
func (r *Registry) StartNewUpload() {
	r.mu.Lock()
	r.view = Uploading{}
	r.mu.Unlock()

	log.Debug(log.CatRegistry, "New upload started")
	r.broker.Publish(pubsub.UpdatedEvent, Change{Kind: UploadStarted})
}

// activate must be called with mu held.
func (r *Registry) activate(id string) {
	r.activeID = id
	r.view = Conversing{Session: conversation.New(conversation.Config{
		VideoID:  id,
		Resolver: r,
		Greeting: r.cfg.Greeting,
		Fallback: r.cfg.Fallback,
		Clock:    r.cfg.Clock,
	})}
}

// ResolveReply applies a chat reply to the active session. Replies for a
// session that is no longer on screen are dropped and false is returned.
func (r *Registry) ResolveReply(reply conversation.Reply) bool {
	session := r.ActiveSession()
	if session == nil || session.Token() != reply.Token {
		log.Debug(log.CatRegistry, "Dropping reply for inactive session", "token", reply.Token)
		return false
	}
	return session.Resolve(reply)
}

// View returns the current view.
func (r *Registry) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Mode returns the tag of the current view.
func (r *Registry) Mode() Mode {
	return r.View().mode()
}

// ActiveSession returns the on-screen session, or nil while uploading.
func (r *Registry) ActiveSession() *conversation.Session {
	if c, ok := r.View().(Conversing); ok {
		return c.Session
	}
	return nil
}

// ActiveVideoID returns the id of the on-screen video. It is empty while
// the uploader is shown.
func (r *Registry) ActiveVideoID() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.view.(Conversing); !ok {
		return "", false
	}
	return r.activeID, true
}

// LastActiveID returns the most recently active id, even while uploading.
func (r *Registry) LastActiveID() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID, r.activeID != ""
}

// Videos returns the registered videos in upload order.
func (r *Registry) Videos() []video.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]video.Entity, len(r.videos))
	copy(out, r.videos)
	return out
}

// Lookup returns the video registered under id. For a repeated id the
// latest registration wins.
func (r *Registry) Lookup(id string) (video.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return video.Entity{}, false
	}
	return r.videos[i], true
}

// Len returns the number of registered videos.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.videos)
}
