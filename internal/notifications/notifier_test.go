package notifications

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishFeed(context.Background(), "x"))
	assert.NoError(t, n.PublishUser(context.Background(), models.NewID(), "x"))
	assert.NoError(t, n.StartSubscriber(context.Background(), func(_, _ string) {}))
}

func TestUserChannel(t *testing.T) {
	id := models.NewID()
	upper := models.ID(strings.ToUpper(id.String()))

	assert.Equal(t, "photoshare:user:"+id.String(), UserChannel(id))
	assert.Equal(t, UserChannel(id), UserChannel(upper))

	parsed, ok := userFromChannel(UserChannel(id))
	require.True(t, ok)
	assert.True(t, parsed.Equal(id))

	_, ok = userFromChannel("photoshare:user:not-a-uuid")
	assert.False(t, ok)
	_, ok = userFromChannel(FeedChannel)
	assert.False(t, ok)
}

func TestEvent_Encode(t *testing.T) {
	raw, err := Event{Type: EventPhotoLiked, Payload: map[string]any{"likesCount": 1}}.Encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, EventPhotoLiked, decoded["type"])
	assert.NotEmpty(t, decoded["timestamp"])
}
