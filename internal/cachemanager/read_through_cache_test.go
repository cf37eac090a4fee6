package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vidbrain/internal/mocks"
)

func probeLoader(calls *int) func(ctx context.Context, path string) (probe, error) {
	return func(ctx context.Context, path string) (probe, error) {
		*calls++
		return probe{Path: path, ContentType: "video/mp4"}, nil
	}
}

func TestReadThroughCache_SkipCacheAlwaysLoads(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, probe](t)
	var calls int

	rt := NewReadThroughCache[string, probe, string](managerMock, probeLoader(&calls), true)

	got, err := rt.Get(context.Background(), "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "/videos/cat.mp4", got.Path)

	_, err = rt.GetWithRefresh(context.Background(), "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestReadThroughCache_GetHit(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, probe](t)
	managerMock.EXPECT().Get(mock.Anything, "k").Return(probe{Path: "cached"}, true)
	var calls int

	rt := NewReadThroughCache[string, probe, string](managerMock, probeLoader(&calls), false)

	got, err := rt.Get(context.Background(), "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "cached", got.Path)
	require.Zero(t, calls)
}

func TestReadThroughCache_GetMissStores(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, probe](t)
	managerMock.EXPECT().Get(mock.Anything, "k").Return(probe{}, false)
	managerMock.EXPECT().Set(mock.Anything, "k", probe{Path: "/videos/cat.mp4", ContentType: "video/mp4"}, time.Minute).Return()
	var calls int

	rt := NewReadThroughCache[string, probe, string](managerMock, probeLoader(&calls), false)

	got, err := rt.Get(context.Background(), "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "video/mp4", got.ContentType)
	require.Equal(t, 1, calls)
}

func TestReadThroughCache_LoaderErrorNotCached(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, probe](t)
	managerMock.EXPECT().GetWithRefresh(mock.Anything, "k", time.Minute).Return(probe{}, false)

	rt := NewReadThroughCache[string, probe, string](
		managerMock,
		func(ctx context.Context, path string) (probe, error) {
			return probe{}, errors.New("stat failed")
		},
		false,
	)

	_, err := rt.GetWithRefresh(context.Background(), "k", "/videos/cat.mp4", time.Minute)
	require.EqualError(t, err, "stat failed")
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	cache := newProbeCache()
	var calls int
	rt := NewReadThroughCache[string, probe, string](cache, probeLoader(&calls), false)
	ctx := context.Background()

	_, err := rt.Get(ctx, "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	_, err = rt.Get(ctx, "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	require.NoError(t, rt.Invalidate(ctx, "k"))
	_, err = rt.Get(ctx, "k", "/videos/cat.mp4", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
