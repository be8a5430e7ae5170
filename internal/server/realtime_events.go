package server

import (
	"context"

	"photoshare/internal/featureflags"
	"photoshare/internal/models"
	"photoshare/internal/notifications"
	"photoshare/internal/observability"
	"photoshare/internal/service"
)

// publishFeedEvent fans an event out to every feed client. With Redis the
// event goes through pub/sub so all instances see it; without Redis only
// local clients receive it. Whether a given viewer receives it is decided
// by the hub at delivery time.
func (s *Server) publishFeedEvent(ctx context.Context, eventType string, payload map[string]any) {
	message, ok := s.encodeEvent(ctx, eventType, payload)
	if !ok {
		return
	}

	if s.notifier != nil {
		// Detached from the request so a client disconnect does not drop the event.
		if err := s.notifier.PublishFeed(context.WithoutCancel(ctx), message); err != nil {
			observability.Logger.WarnContext(ctx, "failed to publish feed event", "event_type", eventType, "error", err)
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
}

// notifyOwner tells a photo's owner that someone else acted on it. The
// event goes only to the owner's own connections.
func (s *Server) notifyOwner(ctx context.Context, owner, actor models.ID, kind string, payload map[string]any) {
	if owner.IsZero() || owner.Equal(actor) {
		return
	}

	body := map[string]any{"kind": kind, "actor_id": actor}
	for k, v := range payload {
		body[k] = v
	}
	message, ok := s.encodeEvent(ctx, notifications.EventNotification, body)
	if !ok {
		return
	}

	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.WithoutCancel(ctx), owner, message); err != nil {
			observability.Logger.WarnContext(ctx, "failed to publish owner notification",
				"owner_id", owner.String(), "kind", kind, "error", err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(owner, message)
	}
}

// encodeEvent renders an event unless the realtime feed is off for everyone.
func (s *Server) encodeEvent(ctx context.Context, eventType string, payload map[string]any) (string, bool) {
	if !s.featureFlags.Reachable(featureflags.RealtimeFeed) {
		return "", false
	}
	message, err := notifications.Event{Type: eventType, Payload: payload}.Encode()
	if err != nil {
		observability.Logger.WarnContext(ctx, "failed to encode feed event", "event_type", eventType, "error", err)
		return "", false
	}
	observability.FeedEvents.WithLabelValues(eventType).Inc()
	return message, true
}

// photoEventPayload carries the public projection only; per-viewer fields
// are left to clients that re-fetch.
func photoEventPayload(view service.PhotoView) map[string]any {
	return map[string]any{
		"photo_id":   view.ID,
		"user_id":    view.UserID,
		"file_name":  view.FileName,
		"thumbnail":  view.Thumbnail,
		"caption":    view.Caption,
		"likesCount": view.LikesCount,
		"comments":   len(view.Comments),
	}
}
