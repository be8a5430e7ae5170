package notifications

import (
	"context"
	"testing"
	"time"

	"photoshare/internal/featureflags"
	"photoshare/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	alice, bob := models.NewID(), models.NewID()

	a, err := hub.Register(alice, nil)
	require.NoError(t, err)
	b, err := hub.Register(bob, nil)
	require.NoError(t, err)
	anon, err := hub.Register("", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, hub.Count())

	hub.Broadcast(alice, "for alice")
	assert.Equal(t, "for alice", string(<-a.Send))
	assert.Empty(t, b.Send)
	assert.Empty(t, anon.Send)

	hub.BroadcastAll("everyone")
	assert.Equal(t, "everyone", string(<-a.Send))
	assert.Equal(t, "everyone", string(<-b.Send))
	assert.Equal(t, "everyone", string(<-anon.Send))
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(models.NewID(), nil)
	require.NoError(t, err)

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Zero(t, hub.Count())

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	user := models.NewID()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(user, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(user, nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)
}

func TestHub_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(models.NewID(), nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(models.NewID(), nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())

	_, open := <-c.Send
	assert.False(t, open)

	_, err = hub.Register(models.NewID(), nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_StartWiringForwardsRedisMessages(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub()
	user := models.NewID()
	c, err := hub.Register(user, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, n))

	require.NoError(t, n.PublishFeed(ctx, `{"type":"photo_created"}`))
	assert.Eventually(t, func() bool { return len(c.Send) == 1 }, testEventuallyTimeout, testPollInterval)
	assert.Equal(t, `{"type":"photo_created"}`, string(<-c.Send))

	require.NoError(t, n.PublishUser(ctx, user, `{"type":"photo_liked"}`))
	assert.Eventually(t, func() bool { return len(c.Send) == 1 }, testEventuallyTimeout, testPollInterval)
	assert.Equal(t, `{"type":"photo_liked"}`, string(<-c.Send))
}

// viewersAround returns one viewer inside and one outside a partial rollout.
func viewersAround(t *testing.T, flags *featureflags.Manager) (in, out models.ID) {
	t.Helper()
	for i := 0; i < 1000 && (in.IsZero() || out.IsZero()); i++ {
		id := models.NewID()
		if flags.Enabled(featureflags.RealtimeFeed, id) {
			if in.IsZero() {
				in = id
			}
		} else if out.IsZero() {
			out = id
		}
	}
	require.False(t, in.IsZero(), "no viewer inside rollout")
	require.False(t, out.IsZero(), "no viewer outside rollout")
	return in, out
}

func TestHub_AudienceFiltersPerViewer(t *testing.T) {
	flags := featureflags.NewManager("realtime_feed=50%")
	inside, outside := viewersAround(t, flags)

	hub := NewHub()
	hub.SetAudience(func(viewer models.ID) bool {
		return flags.Enabled(featureflags.RealtimeFeed, viewer)
	})

	in, err := hub.Register(inside, nil)
	require.NoError(t, err)
	out, err := hub.Register(outside, nil)
	require.NoError(t, err)
	anon, err := hub.Register("", nil)
	require.NoError(t, err)

	hub.BroadcastAll(`{"type":"photo_created"}`)
	assert.Equal(t, `{"type":"photo_created"}`, string(<-in.Send))
	assert.Empty(t, out.Send)
	assert.Empty(t, anon.Send)

	hub.Broadcast(inside, "direct")
	hub.Broadcast(outside, "direct")
	assert.Equal(t, "direct", string(<-in.Send))
	assert.Empty(t, out.Send)
}

func TestHub_ShutdownLeavesConnectionsToWritePump(t *testing.T) {
	hub := NewHub()
	clients := make([]*Client, 0, 3)
	for i := 0; i < 3; i++ {
		c, err := hub.Register(models.NewID(), nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.True(t, hub.isClosed())

	for _, c := range clients {
		_, open := <-c.Send
		assert.False(t, open)
		assert.Equal(t, websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"), c.closeFrame())
		// ReadPump still unregisters afterwards; that must be a no-op.
		hub.Unregister(c)
	}
	assert.Zero(t, hub.Count())
}
