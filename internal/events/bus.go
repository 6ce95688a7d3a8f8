// Package events carries fire-and-forget notifications from the game to the
// renderer and menu over an in-memory watermill channel.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topics published by the game.
const (
	TopicBoardRedraw = "board.redraw"
	TopicMenuUpdate  = "menu.update"
)

// Notice is the payload of every notification. Subscribers may ignore it and
// re-read the game state instead.
type Notice struct {
	GameID string    `json:"game_id"`
	Turn   int       `json:"turn"`
	Phase  string    `json:"phase"`
	Player string    `json:"player"`
	At     time.Time `json:"at"`
}

// Event is a received notification.
type Event struct {
	Topic  string
	Notice Notice
}

// Handler processes one received event.
type Handler func(ctx context.Context, ev Event) error

// Publisher sends notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, n Notice) error
}

// Subscriber receives notifications until ctx is canceled.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// Bus implements Publisher and Subscriber on watermill's GoChannel.
type Bus struct {
	channel *gochannel.GoChannel
}

// NewBus creates an in-memory bus. Messages published while nobody is
// subscribed are dropped.
func NewBus() *Bus {
	logger := watermill.NewStdLogger(false, false)
	return &Bus{
		channel: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
	}
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, topic string, n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := b.channel.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe implements Subscriber. Delivery runs on its own goroutine and
// Subscribe returns once the subscription is active.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.channel.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			var n Notice
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				slog.Warn("dropping malformed notice", "topic", topic, "msg_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := handler(ctx, Event{Topic: topic, Notice: n}); err != nil {
				slog.Error("failed to handle notice", "topic", topic, "msg_id", msg.UUID, "error", err)
			}
			msg.Ack()
		}
		slog.Debug("subscription ended", "topic", topic)
	}()
	return nil
}

// Close stops every subscription.
func (b *Bus) Close() error {
	return b.channel.Close()
}

// Discard is a Publisher that drops everything.
type Discard struct{}

func (Discard) Publish(context.Context, string, Notice) error { return nil }
