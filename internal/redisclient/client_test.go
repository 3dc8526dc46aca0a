package redisclient

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires redis (set REDIS_TEST_ADDR)")
	}
	c, err := NewClient(addr, "", 0, Options{Namespace: "storefront-test-" + uuid.New().String()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSessionToken(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	token, err := c.GetToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, c.SetToken(ctx, "jwt"))
	token, err = c.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)

	require.NoError(t, c.ClearToken(ctx))
	token, err = c.GetToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestProcessedEventMarkers(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	id := uuid.New().String()

	processed, err := c.IsEventProcessed(ctx, id)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, c.MarkEventProcessed(ctx, id, "BRAND_UPDATED"))
	require.NoError(t, c.MarkEventProcessed(ctx, id, "BRAND_UPDATED"))

	processed, err = c.IsEventProcessed(ctx, id)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestWrapDefaults(t *testing.T) {
	c := Wrap(nil, Options{})
	assert.Equal(t, "storefront", c.namespace)
	assert.Equal(t, defaultSessionTTL, c.sessionTTL)
	assert.Equal(t, "storefront:processed:abc", c.eventKey("abc"))
}
