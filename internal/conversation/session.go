// Package conversation sequences the turns of one chat bound to one video.
//
// A Session is created each time a video becomes active and is discarded
// when the user switches away. Every Session mints its own token, which the
// remote service uses as the thread id; a reply carrying another token
// belongs to a discarded session and is dropped.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/log"
	"github.com/zjrosen/vidbrain/internal/video"
)

// Default texts for seeded and failed agent turns.
const (
	DefaultGreeting = "Video processed! Ask me anything about it."
	DefaultFallback = "Error: Could not get response from agent."
)

// Resolver looks up registered videos by id.
type Resolver interface {
	Lookup(id string) (video.Entity, bool)
}

// Chatter is the part of agent.Service a session needs.
type Chatter interface {
	Chat(ctx context.Context, req agent.ChatRequest) (agent.ChatReply, error)
}

// Config configures a new Session.
type Config struct {
	VideoID  string
	Resolver Resolver

	// Token overrides the minted session token. Tests only.
	Token    string
	Greeting string
	Fallback string
	Clock    func() time.Time
}

// Reply is the outcome of one chat round-trip, addressed by session token.
type Reply struct {
	Token string
	Text  string
	Err   error
}

// Session owns the turns of one conversation.
type Session struct {
	mu sync.RWMutex

	videoID  string
	token    string
	resolver Resolver
	fallback string
	clock    func() time.Time

	turns   []Turn
	pending bool
}

// NewToken mints a session token.
func NewToken() string {
	return uuid.NewString()
}

// New starts a session seeded with the greeting turn.
func New(cfg Config) *Session {
	s := &Session{
		videoID:  cfg.VideoID,
		token:    cfg.Token,
		resolver: cfg.Resolver,
		fallback: cfg.Fallback,
		clock:    cfg.Clock,
	}
	if s.token == "" {
		s.token = NewToken()
	}
	if s.fallback == "" {
		s.fallback = DefaultFallback
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	greeting := cfg.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	s.appendTurn(RoleAgent, greeting)

	log.Debug(log.CatChat, "Session started", "videoID", s.videoID, "token", s.token)
	return s
}

// Token returns the session token. It never changes.
func (s *Session) Token() string {
	return s.token
}

// VideoID returns the id this session is bound to.
func (s *Session) VideoID() string {
	return s.videoID
}

// Turns returns a copy of the conversation so far.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Pending reports whether a round-trip is in flight.
func (s *Session) Pending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Begin records a user turn and returns the request to send. It is a no-op
// returning false when text is blank, a round-trip is already pending, or
// the bound video no longer resolves.
func (s *Session) Begin(text string) (agent.ChatRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" || s.pending {
		return agent.ChatRequest{}, false
	}
	if s.resolver == nil {
		return agent.ChatRequest{}, false
	}
	if _, ok := s.resolver.Lookup(s.videoID); !ok {
		log.Warn(log.CatChat, "Video no longer resolves", "videoID", s.videoID)
		return agent.ChatRequest{}, false
	}

	s.appendTurn(RoleUser, text)
	s.pending = true

	return agent.ChatRequest{
		Message:  text,
		VideoID:  s.videoID,
		ThreadID: s.token,
	}, true
}

// Resolve completes the pending round-trip with reply. Replies for another
// token, or arriving when nothing is pending, are dropped and Resolve
// returns false.
func (s *Session) Resolve(reply Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reply.Token != s.token {
		log.Debug(log.CatChat, "Dropping stale reply", "token", reply.Token, "active", s.token)
		return false
	}
	if !s.pending {
		log.Debug(log.CatChat, "Dropping reply with nothing pending", "token", reply.Token)
		return false
	}

	text := reply.Text
	if reply.Err != nil {
		log.ErrorErr(log.CatChat, "Agent reply failed", reply.Err, "videoID", s.videoID)
		text = s.fallback
	}
	s.appendTurn(RoleAgent, text)
	s.pending = false
	return true
}

// Send runs one full round-trip synchronously. pending is always released,
// including when svc panics.
func (s *Session) Send(ctx context.Context, text string, svc Chatter) bool {
	req, ok := s.Begin(text)
	if !ok {
		return false
	}

	reply := Reply{Token: req.ThreadID, Err: agent.ErrSendFailed}
	defer func() { s.Resolve(reply) }()

	reply = Exchange(ctx, svc, req)
	return true
}

// Exchange runs Chat for a request produced by Begin and packages the
// outcome as a Reply. It never panics.
func Exchange(ctx context.Context, svc Chatter, req agent.ChatRequest) (reply Reply) {
	reply.Token = req.ThreadID
	defer func() {
		if r := recover(); r != nil {
			reply.Text = ""
			reply.Err = fmt.Errorf("%w: panic: %v", agent.ErrSendFailed, r)
		}
	}()

	resp, err := svc.Chat(ctx, req)
	if err != nil {
		reply.Err = err
		return reply
	}
	reply.Text = resp.Response
	return reply
}

// appendTurn must be called with mu held.
func (s *Session) appendTurn(role Role, content string) {
	s.turns = append(s.turns, Turn{
		Role:     role,
		Content:  content,
		Sequence: len(s.turns),
		At:       s.clock(),
	})
}
