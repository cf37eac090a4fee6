package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/mocks"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/video"
)

// mp4Header is enough of an ftyp box for content sniffing.
var mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")

type recordingRegistrar struct {
	mu     sync.Mutex
	videos []video.Entity
}

func (r *recordingRegistrar) RegisterVideo(e video.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.videos = append(r.videos, e)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func newTestController(t *testing.T) (*Controller, *mocks.MockService, *recordingRegistrar) {
	t.Helper()
	svc := mocks.NewMockService(t)
	reg := &recordingRegistrar{}
	return New(Config{Registrar: reg, Service: svc}), svc, reg
}

func TestSelectFile_BuildsPreview(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)

	require.NoError(t, c.SelectFile(context.Background(), path))

	staged, ok := c.Staged()
	require.True(t, ok)
	require.Equal(t, "cat.mp4", staged.Name)
	require.Equal(t, "video/mp4", staged.Preview.ContentType)
	require.True(t, staged.Preview.IsVideo)
	require.Equal(t, int64(len(mp4Header)), staged.Preview.Size)
	require.True(t, strings.HasPrefix(staged.Preview.URL, "file://"))
	require.True(t, strings.HasSuffix(staged.Preview.URL, "/cat.mp4"))
	require.Empty(t, c.ErrorMessage())
}

func TestSelectFile_NonVideoIsAllowed(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "notes.txt", []byte("just some notes"))

	require.NoError(t, c.SelectFile(context.Background(), path))

	staged, ok := c.Staged()
	require.True(t, ok)
	require.False(t, staged.Preview.IsVideo)
	require.True(t, strings.HasPrefix(staged.Preview.ContentType, "text/plain"))
}

func TestSelectFile_ExtensionFallback(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "clip.mkv", []byte{0x00, 0x01, 0x02, 0x03})

	require.NoError(t, c.SelectFile(context.Background(), path))
	staged, _ := c.Staged()
	require.Equal(t, "video/x-matroska", staged.Preview.ContentType)
	require.True(t, staged.Preview.IsVideo)
}

func TestSelectFile_FailureKeepsPrevious(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)
	require.NoError(t, c.SelectFile(context.Background(), path))

	err := c.SelectFile(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))

	err = c.SelectFile(context.Background(), t.TempDir())
	require.ErrorContains(t, err, "is a directory")

	staged, ok := c.Staged()
	require.True(t, ok)
	require.Equal(t, path, staged.Path)
}

func TestSelectFile_ClearsError(t *testing.T) {
	c, svc, _ := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)
	require.NoError(t, c.SelectFile(context.Background(), path))

	svc.EXPECT().Upload(mock.Anything, "cat.mp4", mock.Anything).Return(agent.UploadResult{}, errors.New("refused"))
	_, err := c.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, DefaultErrorMessage, c.ErrorMessage())

	require.NoError(t, c.SelectFile(context.Background(), path))
	require.Empty(t, c.ErrorMessage())
}

func TestSubmit_Success(t *testing.T) {
	c, svc, reg := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)
	require.NoError(t, c.SelectFile(context.Background(), path))

	svc.EXPECT().Upload(mock.Anything, "cat.mp4", mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, r io.Reader) (agent.UploadResult, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, mp4Header, data)
			return agent.UploadResult{VideoID: "a1", Filename: "server-name.mp4"}, nil
		})

	entity, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, video.Entity{ID: "a1", Filename: "cat.mp4"}, entity, "filename is the local name")
	require.Equal(t, []video.Entity{entity}, reg.videos)

	_, staged := c.Staged()
	require.False(t, staged)
	require.False(t, c.Uploading())
	require.Empty(t, c.ErrorMessage())
}

func TestSubmit_FailureKeepsStaged(t *testing.T) {
	c, svc, reg := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)
	require.NoError(t, c.SelectFile(context.Background(), path))

	svc.EXPECT().Upload(mock.Anything, mock.Anything, mock.Anything).
		Return(agent.UploadResult{}, &agent.Error{Op: "upload video", Kind: agent.KindUpload, StatusCode: 500})

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, agent.ErrUploadFailed)
	require.Equal(t, DefaultErrorMessage, c.ErrorMessage())
	require.False(t, c.Uploading())
	require.Empty(t, reg.videos)

	staged, ok := c.Staged()
	require.True(t, ok)
	require.Equal(t, path, staged.Path)
}

func TestSubmit_EmptyVideoIDIsFailure(t *testing.T) {
	c, svc, reg := newTestController(t)
	require.NoError(t, c.SelectFile(context.Background(), writeFile(t, "cat.mp4", mp4Header)))

	svc.EXPECT().Upload(mock.Anything, mock.Anything, mock.Anything).Return(agent.UploadResult{Filename: "cat.mp4"}, nil)

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, agent.ErrMalformedResponse)
	require.Equal(t, DefaultErrorMessage, c.ErrorMessage())
	require.Empty(t, reg.videos)
}

func TestSubmit_FileRemovedAfterStaging(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)
	require.NoError(t, c.SelectFile(context.Background(), path))
	require.NoError(t, os.Remove(path))

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, agent.ErrUploadFailed)
	require.Equal(t, DefaultErrorMessage, c.ErrorMessage())
}

func TestSubmit_NothingStaged(t *testing.T) {
	c, _, _ := newTestController(t)
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrNothingStaged)
	require.False(t, c.Uploading())
}

func TestSubmit_RejectsSecondWhileInFlight(t *testing.T) {
	c, svc, reg := newTestController(t)
	require.NoError(t, c.SelectFile(context.Background(), writeFile(t, "cat.mp4", mp4Header)))

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.EXPECT().Upload(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, string, io.Reader) (agent.UploadResult, error) {
			close(entered)
			<-release
			return agent.UploadResult{VideoID: "a1"}, nil
		}).Once()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-entered
	require.True(t, c.Uploading())
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrUploadInFlight)
	_, ok := c.Begin()
	require.False(t, ok)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("upload did not finish")
	}
	require.Len(t, reg.videos, 1)
}

func TestSubmit_PanicReleasesUploading(t *testing.T) {
	c, svc, _ := newTestController(t)
	require.NoError(t, c.SelectFile(context.Background(), writeFile(t, "cat.mp4", mp4Header)))

	svc.EXPECT().Upload(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, string, io.Reader) (agent.UploadResult, error) {
			panic("boom")
		})

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, agent.ErrUploadFailed)
	require.False(t, c.Uploading())
}

func TestComplete_IgnoresUnknownJob(t *testing.T) {
	c, _, reg := newTestController(t)
	require.NoError(t, c.SelectFile(context.Background(), writeFile(t, "cat.mp4", mp4Header)))

	_, ok := c.Complete(Job{}, agent.UploadResult{VideoID: "a1"}, nil)
	require.False(t, ok)

	job, ok := c.Begin()
	require.True(t, ok)
	_, ok = c.Complete(Job{File: job.File}, agent.UploadResult{VideoID: "a1"}, nil)
	require.False(t, ok, "a job from another Begin does not complete this one")
	require.True(t, c.Uploading())

	_, ok = c.Complete(job, agent.UploadResult{VideoID: "a1"}, nil)
	require.True(t, ok)
	require.Len(t, reg.videos, 1)
}

func TestClear(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.SelectFile(context.Background(), writeFile(t, "cat.mp4", mp4Header)))

	job, ok := c.Begin()
	require.True(t, ok)
	c.Clear()
	_, staged := c.Staged()
	require.True(t, staged, "clear is ignored while uploading")

	c.Complete(job, agent.UploadResult{}, errors.New("down"))
	c.Clear()
	_, staged = c.Staged()
	require.False(t, staged)
	require.Empty(t, c.ErrorMessage())
}

func TestRefresh_ReprobesChangedFile(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "clip.mp4", []byte("draft"))
	require.NoError(t, c.SelectFile(context.Background(), path))

	bigger := append(append([]byte{}, mp4Header...), make([]byte, 100)...)
	require.NoError(t, os.WriteFile(path, bigger, 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	require.NoError(t, c.Refresh(context.Background()))
	staged, _ := c.Staged()
	require.Equal(t, int64(len(bigger)), staged.Preview.Size)
	require.Equal(t, "video/mp4", staged.Preview.ContentType)
}

func TestRefresh_VanishedFileStaysStaged(t *testing.T) {
	c, _, _ := newTestController(t)
	path := writeFile(t, "cat.mp4", mp4Header)
	require.NoError(t, c.SelectFile(context.Background(), path))
	require.NoError(t, os.Remove(path))

	require.Error(t, c.Refresh(context.Background()))
	_, ok := c.Staged()
	require.True(t, ok)
}

func TestPreview_UsesCache(t *testing.T) {
	path := writeFile(t, "cat.mp4", mp4Header)
	info, err := os.Stat(path)
	require.NoError(t, err)

	cached := Preview{URL: "file:///cached", ContentType: "video/mp4", IsVideo: true}
	cache := mocks.NewMockCacheManager[string, Preview](t)
	cache.EXPECT().GetWithRefresh(mock.Anything, previewKey(path, info), DefaultPreviewTTL).Return(cached, true)

	c := New(Config{Cache: cache})
	require.NoError(t, c.SelectFile(context.Background(), path))

	staged, _ := c.Staged()
	require.Equal(t, cached, staged.Preview)
}

func TestPreview_HumanSize(t *testing.T) {
	require.Equal(t, "12 MB", Preview{Size: 12_000_000}.HumanSize())
	require.Equal(t, "0 B", Preview{}.HumanSize())
}

func TestSubmit_RegistersIntoRegistry(t *testing.T) {
	reg := registry.New(registry.Config{})
	t.Cleanup(reg.Close)
	svc := mocks.NewMockService(t)
	c := New(Config{Registrar: reg, Service: svc})

	require.NoError(t, c.SelectFile(context.Background(), writeFile(t, "cat.mp4", mp4Header)))
	svc.EXPECT().Upload(mock.Anything, "cat.mp4", mock.Anything).Return(agent.UploadResult{VideoID: "a1", Filename: "cat.mp4"}, nil)

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	id, ok := reg.ActiveVideoID()
	require.True(t, ok)
	require.Equal(t, "a1", id)
	require.Equal(t, registry.ModeConversing, reg.Mode())
}
