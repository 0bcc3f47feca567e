package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHubPublishSubscribe(t *testing.T) {
	h := NewProgressHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish("abc", "sketch_to_image", StatusStarted, "")

	ev := <-ch
	assert.Equal(t, "abc", ev.SessionID)
	assert.Equal(t, "sketch_to_image", ev.Stage)
	assert.Equal(t, StatusStarted, ev.Status)
	assert.False(t, ev.Time.IsZero())
}

func TestProgressHubFanOut(t *testing.T) {
	h := NewProgressHub()
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Publish("abc", "text_to_3d", StatusFinished, "model ready")

	assert.Equal(t, "model ready", (<-a).Detail)
	assert.Equal(t, "model ready", (<-b).Detail)
}

func TestProgressHubCancelStopsDelivery(t *testing.T) {
	h := NewProgressHub()
	ch, cancel := h.Subscribe()
	cancel()

	h.Publish("abc", "export", StatusFailed, "")

	require.Len(t, ch, 0, "no event may arrive after cancel")
}

func TestProgressHubSlowSubscriberDropsEvents(t *testing.T) {
	h := NewProgressHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	// Fill the buffer and keep going; Publish must never block.
	for i := 0; i < 50; i++ {
		h.Publish("abc", "export", StatusStarted, "")
	}

	assert.Len(t, ch, 16)
}
