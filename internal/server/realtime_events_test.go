package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"photoshare/internal/featureflags"
	"photoshare/internal/models"
	"photoshare/internal/notifications"
	"photoshare/internal/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, raw string) notifications.Event {
	t.Helper()
	var event notifications.Event
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	return event
}

func TestOwnerNotifications(t *testing.T) {
	env := newTestEnv(t)
	aliceID, aliceToken := registerAndLogin(t, env.app, "alice")
	bobID, bobToken := registerAndLogin(t, env.app, "bob")

	created := doMultipart(t, env.app, http.MethodPost, "/api/photos", aliceToken,
		map[string]string{"caption": "Mine"}, "image", "mine.png", testutil.TinyPNG(t, 8, 8))
	require.Equal(t, http.StatusCreated, created.status, created.raw)
	photoID := created.object("photo")["id"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := env.rdb.Subscribe(ctx, notifications.UserChannel(models.ID(aliceID)))
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	// Alice acting on her own photo is not a notification.
	own := doJSON(t, env.app, http.MethodPost, "/api/photos/"+photoID+"/like", aliceToken, nil)
	require.Equal(t, http.StatusOK, own.status, own.raw)

	liked := doJSON(t, env.app, http.MethodPost, "/api/photos/"+photoID+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, liked.status, liked.raw)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	event := decodeEvent(t, msg.Payload)
	assert.Equal(t, notifications.EventNotification, event.Type)
	assert.Equal(t, notifications.EventPhotoLiked, event.Payload["kind"])
	assert.Equal(t, bobID, event.Payload["actor_id"])
	assert.Equal(t, photoID, event.Payload["photo_id"])

	// Unliking is silent; the next message is the comment.
	unliked := doJSON(t, env.app, http.MethodPost, "/api/photos/"+photoID+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, unliked.status, unliked.raw)
	commented := doJSON(t, env.app, http.MethodPost, "/api/photos/"+photoID+"/comments", bobToken,
		map[string]string{"comment": "Lovely"})
	require.Equal(t, http.StatusCreated, commented.status, commented.raw)

	msg, err = sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	event = decodeEvent(t, msg.Payload)
	assert.Equal(t, notifications.EventCommentCreated, event.Payload["kind"])
	assert.Equal(t, bobID, event.Payload["actor_id"])
	assert.Equal(t, commented.object("comment")["id"], event.Payload["comment_id"])
}

// rolloutViewers returns one viewer inside and one outside a partial rollout.
func rolloutViewers(t *testing.T, flags *featureflags.Manager) (in, out models.ID) {
	t.Helper()
	for i := 0; i < 1000 && (in.IsZero() || out.IsZero()); i++ {
		id := models.NewID()
		switch {
		case flags.Enabled(featureflags.RealtimeFeed, id):
			if in.IsZero() {
				in = id
			}
		case out.IsZero():
			out = id
		}
	}
	require.False(t, in.IsZero())
	require.False(t, out.IsZero())
	return in, out
}

func TestFeedEvents_PartialRolloutFollowsViewer(t *testing.T) {
	env := newTestEnv(t)
	flags := featureflags.NewManager("realtime_feed=50%")
	env.server.featureFlags = flags
	env.server.notifier = nil

	inside, outside := rolloutViewers(t, flags)
	in, err := env.server.hub.Register(inside, nil)
	require.NoError(t, err)
	out, err := env.server.hub.Register(outside, nil)
	require.NoError(t, err)

	env.server.publishFeedEvent(context.Background(), notifications.EventPhotoCreated,
		map[string]any{"photo_id": models.NewID()})

	require.Len(t, in.Send, 1)
	assert.Equal(t, notifications.EventPhotoCreated, decodeEvent(t, string(<-in.Send)).Type)
	assert.Empty(t, out.Send)

	// Owner notifications respect the owner's bucket too.
	env.server.notifyOwner(context.Background(), inside, outside, notifications.EventPhotoLiked, nil)
	env.server.notifyOwner(context.Background(), outside, inside, notifications.EventPhotoLiked, nil)
	env.server.notifyOwner(context.Background(), inside, inside, notifications.EventPhotoLiked, nil)
	require.Len(t, in.Send, 1)
	assert.Equal(t, notifications.EventNotification, decodeEvent(t, string(<-in.Send)).Type)
	assert.Empty(t, out.Send)
}

func TestFeedEvents_FlagOffPublishesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.server.featureFlags = featureflags.NewManager("realtime_feed=off")
	env.server.notifier = nil

	c, err := env.server.hub.Register(models.NewID(), nil)
	require.NoError(t, err)
	env.server.publishFeedEvent(context.Background(), notifications.EventPhotoCreated, nil)
	assert.Empty(t, c.Send)
}

func TestFeedShutdown_SendsGoingAwayFrame(t *testing.T) {
	env := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.Shutdown() })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/ws/feed", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.Eventually(t, func() bool { return env.server.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, env.server.hub.Shutdown(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
