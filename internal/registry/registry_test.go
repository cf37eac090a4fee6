package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/conversation"
	"github.com/zjrosen/vidbrain/internal/mocks"
	"github.com/zjrosen/vidbrain/internal/pubsub"
	"github.com/zjrosen/vidbrain/internal/video"
)

var (
	cat = video.Entity{ID: "a1", Filename: "cat.mp4"}
	dog = video.Entity{ID: "b2", Filename: "dog.mov"}
)

func TestNew_StartsUploading(t *testing.T) {
	r := New(Config{})
	require.Equal(t, ModeUploading, r.Mode())
	require.IsType(t, Uploading{}, r.View())
	require.Nil(t, r.ActiveSession())
	require.Zero(t, r.Len())

	_, ok := r.ActiveVideoID()
	require.False(t, ok)
	_, ok = r.LastActiveID()
	require.False(t, ok)
}

func TestRegisterVideo_ActivatesConversation(t *testing.T) {
	r := New(Config{})

	r.RegisterVideo(cat)

	require.Equal(t, []video.Entity{cat}, r.Videos())
	id, ok := r.ActiveVideoID()
	require.True(t, ok)
	require.Equal(t, "a1", id)
	require.Equal(t, ModeConversing, r.Mode())

	session := r.ActiveSession()
	require.NotNil(t, session)
	require.Equal(t, "a1", session.VideoID())
	require.Len(t, session.Turns(), 1)
}

func TestRegisterVideo_NoDedupe(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	r.RegisterVideo(video.Entity{ID: "a1", Filename: "cat-again.mp4"})

	require.Equal(t, 2, r.Len())
	got, ok := r.Lookup("a1")
	require.True(t, ok)
	require.Equal(t, "cat-again.mp4", got.Filename)
}

func TestRegisterVideo_SessionUsesConfig(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r := New(Config{Greeting: "Ready.", Clock: func() time.Time { return at }})
	r.RegisterVideo(cat)

	turn := r.ActiveSession().Turns()[0]
	require.Equal(t, "Ready.", turn.Content)
	require.Equal(t, at, turn.At)
}

func TestSelectVideo_NotFoundLeavesState(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	before := r.ActiveSession()

	err := r.SelectVideo("zz")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, `"zz"`)

	id, _ := r.ActiveVideoID()
	require.Equal(t, "a1", id)
	require.Equal(t, ModeConversing, r.Mode())
	require.Same(t, before, r.ActiveSession())
}

func TestSelectVideo_NotFoundWhileUploading(t *testing.T) {
	r := New(Config{})
	require.ErrorIs(t, r.SelectVideo("a1"), ErrNotFound)
	require.Equal(t, ModeUploading, r.Mode())
}

func TestSelectVideo_DiscardsPreviousSession(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	r.RegisterVideo(dog)

	require.NoError(t, r.SelectVideo("a1"))
	first := r.ActiveSession()

	svc := mocks.NewMockService(t)
	svc.EXPECT().Chat(mock.Anything, mock.Anything).Return(agent.ChatReply{Response: "a cat"}, nil).Times(3)
	for _, q := range []string{"one", "two", "three"} {
		require.True(t, first.Send(context.Background(), q, svc))
	}
	require.Len(t, first.Turns(), 7)

	require.NoError(t, r.SelectVideo("b2"))
	second := r.ActiveSession()
	require.NotSame(t, first, second)
	require.Equal(t, "b2", second.VideoID())
	require.Len(t, second.Turns(), 1)
	require.Equal(t, conversation.RoleAgent, second.Turns()[0].Role)
}

func TestSelectVideo_SameVideoMintsFreshToken(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	first := r.ActiveSession().Token()

	require.NoError(t, r.SelectVideo("a1"))
	require.NotEqual(t, first, r.ActiveSession().Token())
}

func TestStartNewUpload_KeepsVideosAndLastActive(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)

	r.StartNewUpload()

	require.Equal(t, ModeUploading, r.Mode())
	require.Nil(t, r.ActiveSession())
	_, ok := r.ActiveVideoID()
	require.False(t, ok)

	last, ok := r.LastActiveID()
	require.True(t, ok)
	require.Equal(t, "a1", last)
	require.Equal(t, 1, r.Len())

	require.NoError(t, r.SelectVideo(last))
	require.Equal(t, ModeConversing, r.Mode())
	require.Len(t, r.ActiveSession().Turns(), 1)
}

func TestResolveReply_StaleAfterSwitch(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	r.RegisterVideo(dog)
	require.NoError(t, r.SelectVideo("a1"))

	old := r.ActiveSession()
	req, ok := old.Begin("hello")
	require.True(t, ok)

	require.NoError(t, r.SelectVideo("b2"))
	current := r.ActiveSession()

	applied := r.ResolveReply(conversation.Reply{Token: req.ThreadID, Text: "late answer"})
	require.False(t, applied)
	require.Len(t, current.Turns(), 1)
	require.False(t, current.Pending())
}

func TestResolveReply_WhileUploading(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	req, ok := r.ActiveSession().Begin("hello")
	require.True(t, ok)

	r.StartNewUpload()
	require.False(t, r.ResolveReply(conversation.Reply{Token: req.ThreadID, Text: "late"}))
}

func TestResolveReply_Applies(t *testing.T) {
	r := New(Config{})
	r.RegisterVideo(cat)
	req, ok := r.ActiveSession().Begin("hello")
	require.True(t, ok)

	require.True(t, r.ResolveReply(conversation.Reply{Token: req.ThreadID, Err: errors.New("down")}))
	turns := r.ActiveSession().Turns()
	require.Equal(t, conversation.DefaultFallback, turns[len(turns)-1].Content)
}

func TestBroker_PublishesChanges(t *testing.T) {
	r := New(Config{})
	t.Cleanup(r.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := r.Broker().Subscribe(ctx)

	r.RegisterVideo(cat)
	r.StartNewUpload()
	require.NoError(t, r.SelectVideo("a1"))
	require.Error(t, r.SelectVideo("nope"))

	want := []Change{
		{Kind: VideoRegistered, VideoID: "a1"},
		{Kind: UploadStarted},
		{Kind: VideoSelected, VideoID: "a1"},
	}
	for _, w := range want {
		select {
		case evt := <-ch:
			require.Equal(t, w, evt.Payload)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %v", w.Kind)
		}
	}

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %v", evt.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBroker_RegisterIsCreatedEvent(t *testing.T) {
	r := New(Config{})
	t.Cleanup(r.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := r.Broker().Subscribe(ctx)

	r.RegisterVideo(cat)
	evt := <-ch
	require.Equal(t, pubsub.CreatedEvent, evt.Type)
}

// Conversing holds exactly when the active id resolves, across any mix of
// the three mutations.
func TestRegistry_ModeInvariantProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := New(Config{})
		defer r.Close()

		ids := []string{"a1", "b2", "c3", "d4"}
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				before := r.Len()
				r.RegisterVideo(video.Entity{ID: id, Filename: id + ".mp4"})
				require.Equal(rt, before+1, r.Len())
			case 1:
				prevMode := r.Mode()
				prevID, _ := r.ActiveVideoID()
				if err := r.SelectVideo(id); err != nil {
					require.ErrorIs(rt, err, ErrNotFound)
					require.Equal(rt, prevMode, r.Mode())
					gotID, _ := r.ActiveVideoID()
					require.Equal(rt, prevID, gotID)
				}
			case 2:
				r.StartNewUpload()
			}

			id, active := r.ActiveVideoID()
			if r.Mode() == ModeConversing {
				require.True(rt, active)
				_, ok := r.Lookup(id)
				require.True(rt, ok)
				require.Equal(rt, id, r.ActiveSession().VideoID())
			} else {
				require.False(rt, active)
				require.Nil(rt, r.ActiveSession())
			}
		}
	})
}
