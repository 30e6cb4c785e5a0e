package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type keyedEvent struct {
	ID string `json:"id"`
}

func (e keyedEvent) PartitionKey() string { return e.ID }

type collectingHandler struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (h *collectingHandler) HandleMessage(ctx context.Context, key string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, payload)
}

func (h *collectingHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

func TestInMemoryEventBus_FanOut(t *testing.T) {
	bus := NewInMemoryEventBus("boleto-issued")
	a := bus.Subscribe(1)
	b := bus.Subscribe(1)

	require.NoError(t, bus.Publish(context.Background(), keyedEvent{ID: "1"}))

	for _, ch := range []<-chan []byte{a, b} {
		var evt keyedEvent
		require.NoError(t, json.Unmarshal(<-ch, &evt))
		assert.Equal(t, "1", evt.ID)
	}
	assert.Equal(t, "boleto-issued", bus.Topic())
}

func TestInMemoryEventBus_NoSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus("t")
	assert.NoError(t, bus.Publish(context.Background(), keyedEvent{ID: "x"}))
}

func TestInMemoryEventBus_BlocksUntilContextDone(t *testing.T) {
	bus := NewInMemoryEventBus("t")
	_ = bus.Subscribe(0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, keyedEvent{ID: "x"}), context.DeadlineExceeded)
}

func TestBackgroundConsumerChan_DrainsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewInMemoryEventBus("t")
	handler := &collectingHandler{}
	BackgroundConsumerChan(ctx, bus.Subscribe(0), handler, zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, keyedEvent{ID: "x"}))
	}
	require.Eventually(t, func() bool { return handler.Len() == 5 }, time.Second, 5*time.Millisecond)
}

func TestInMemoryEventBus_CloseReleasesBlockedPublisher(t *testing.T) {
	bus := NewInMemoryEventBus("t")
	_ = bus.Subscribe(1)
	require.NoError(t, bus.Publish(context.Background(), keyedEvent{ID: "1"}))

	// Buffer lleno y nadie consume: sin Close esto bloquea para siempre.
	errCh := make(chan error, 1)
	go func() {
		errCh <- bus.Publish(context.WithoutCancel(context.Background()), keyedEvent{ID: "2"})
	}()

	select {
	case <-errCh:
		t.Fatal("publish returned while the buffer was full")
	case <-time.After(20 * time.Millisecond):
	}

	bus.Close()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrBusClosed)
	case <-time.After(time.Second):
		t.Fatal("publish still blocked after Close")
	}

	assert.ErrorIs(t, bus.Publish(context.Background(), keyedEvent{ID: "3"}), ErrBusClosed)
	bus.Close()
}
