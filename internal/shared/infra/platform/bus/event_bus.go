package bus

import "context"

// Keyer define la clave de partición de un mensaje (Kafka la usa para ordenar).
type Keyer interface {
	PartitionKey() string
}

// EventBus publica mensajes de integración. Las implementaciones deben admitir
// llamadas concurrentes: el pool de workers publica en paralelo.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}
