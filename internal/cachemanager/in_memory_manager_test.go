package cachemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type exampleEntry struct {
	Status string
	Data   []string
}

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test")
	})
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, *exampleEntry]("entries")
	entry := &exampleEntry{Status: "success", Data: []string{"h1"}}
	cache.Set(context.Background(), `["hospitals"]`, entry)

	got, ok := cache.Get(context.Background(), `["hospitals"]`)
	require.True(t, ok)
	require.Same(t, entry, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("entries")

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("entries")
	cache.cache.Set("food", 123, 0)

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_SetOverwrites(t *testing.T) {
	cache := NewInMemoryCacheManager[string, *exampleEntry]("entries")
	cache.Set(context.Background(), "k", &exampleEntry{Status: "loading", Data: []string{"old"}})
	cache.Set(context.Background(), "k", &exampleEntry{Status: "success"})

	got, ok := cache.Get(context.Background(), "k")
	require.True(t, ok)
	require.Equal(t, &exampleEntry{Status: "success"}, got)
	require.Len(t, cache.Keys(context.Background()), 1)
}

func TestInMemoryCacheManager_DeleteAndKeys(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("entries")
	require.NoError(t, cache.Delete(context.Background()))

	cache.Set(context.Background(), "a", "1")
	cache.Set(context.Background(), "b", "2")
	require.ElementsMatch(t, []string{"a", "b"}, cache.Keys(context.Background()))

	require.NoError(t, cache.Delete(context.Background(), "a", "missing"))
	require.Equal(t, []string{"b"}, cache.Keys(context.Background()))
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("entries")
	cache.Set(context.Background(), "food", "apple")

	require.NoError(t, cache.Flush(context.Background()))

	_, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, cache.Keys(context.Background()))
}
