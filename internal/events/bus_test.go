package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversNotices(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	err := bus.Subscribe(ctx, TopicBoardRedraw, func(ctx context.Context, ev Event) error {
		received <- ev
		return nil
	})
	require.NoError(t, err)

	sent := Notice{GameID: "g1", Turn: 2, Phase: "Combat", Player: "Player 1"}
	require.NoError(t, bus.Publish(ctx, TopicBoardRedraw, sent))

	select {
	case ev := <-received:
		assert.Equal(t, TopicBoardRedraw, ev.Topic)
		assert.Equal(t, "g1", ev.Notice.GameID)
		assert.Equal(t, 2, ev.Notice.Turn)
		assert.Equal(t, "Combat", ev.Notice.Phase)
	case <-time.After(2 * time.Second):
		t.Fatal("notice not delivered")
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	assert.NoError(t, bus.Publish(context.Background(), TopicMenuUpdate, Notice{GameID: "g1"}))
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	assert.NoError(t, p.Publish(context.Background(), TopicMenuUpdate, Notice{}))
}
