package blobstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/docingest/internal/blobstore"
)

func TestMemoryStore_PutGetRoundTrip(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	uri, err := store.Put(ctx, "docs/abc123", []byte("hello world"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://docs/abc123", uri)

	data, err := store.Get(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
}

func TestMemoryStore_GetMissingKey(t *testing.T) {
	store := blobstore.NewMemoryStore()
	_, err := store.Get(context.Background(), "mem://does/not/exist")
	assert.Error(t, err)
}
