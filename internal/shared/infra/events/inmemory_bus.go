package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/boletolab/internal/shared/infra/platform/bus"
)

// InMemoryEventBus implementa un bus de eventos para UN solo topic con canales.
// Los mensajes se entregan serializados ([]byte), igual que por Kafka.
type InMemoryEventBus struct {
	subscribers []chan []byte
	mu          sync.RWMutex
	topic       string

	closed    chan struct{}
	closeOnce sync.Once
}

// ErrBusClosed lo devuelve Publish una vez cerrado el bus.
var ErrBusClosed = errors.New("in-memory bus closed")

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{topic: topic, closed: make(chan struct{})}
}

// Publish entrega el evento a todos los suscriptores. Si el buffer de un
// suscriptor está lleno, espera hasta que haya hueco, se cancele ctx o se
// cierre el bus.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	select {
	case <-b.closed:
		return ErrBusClosed
	default:
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub <- payload:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closed:
			return ErrBusClosed
		}
	}
	return nil
}

// Close desbloquea a los publicadores en espera y rechaza los siguientes.
// Los canales de los suscriptores no se cierran.
func (b *InMemoryEventBus) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

// Subscribe suscribe un nuevo oyente a este bus.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *InMemoryEventBus) Topic() string {
	return b.topic
}

// BackgroundConsumerChan drena un canal del bus hacia un MessageHandler.
func BackgroundConsumerChan(ctx context.Context, ch <-chan []byte, handler MessageHandler, log *zap.Logger) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("In-memory consumer stopped")
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				handler.HandleMessage(ctx, "", payload)
			}
		}
	}()
}
