// Package notifications delivers realtime feed events over Redis pub/sub and
// websockets.
package notifications

import (
	"context"
	"runtime/debug"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// FeedChannel carries events every connected client receives.
	FeedChannel = "photoshare:feed"
	// userChannelPrefix prefixes per-user channels.
	userChannelPrefix = "photoshare:user:"
)

// UserChannel returns the pub/sub channel for one user.
func UserChannel(userID models.ID) string {
	return userChannelPrefix + userID.Canonical()
}

// Notifier publishes events into Redis channels so every API instance can
// fan them out to its own websocket clients.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client makes every call a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishFeed sends payload to every subscriber of the feed.
func (n *Notifier) PublishFeed(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, FeedChannel, payload).Err()
}

// PublishUser sends payload to a single user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID models.ID, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartSubscriber listens on the feed and user channels until ctx ends.
// onMessage runs on the subscriber goroutine; panics are logged and swallowed.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, FeedChannel, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in feed subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// userFromChannel extracts the user identity from a per-user channel name.
func userFromChannel(channel string) (models.ID, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return "", false
	}
	id, err := models.ParseID(raw)
	if err != nil {
		return "", false
	}
	return id, true
}
