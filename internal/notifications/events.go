package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// Feed event types.
const (
	EventPhotoCreated   = "photo_created"
	EventPhotoUpdated   = "photo_updated"
	EventPhotoDeleted   = "photo_deleted"
	EventPhotoLiked     = "photo_liked"
	EventPhotoUnliked   = "photo_unliked"
	EventCommentCreated = "comment_created"
	EventCommentUpdated = "comment_updated"
	EventCommentDeleted = "comment_deleted"

	// EventNotification goes only to a photo's owner. Its payload "kind" is
	// EventPhotoLiked or EventCommentCreated.
	EventNotification = "notification"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// Encode renders the event as a JSON string.
func (e Event) Encode() (string, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return string(raw), nil
}
