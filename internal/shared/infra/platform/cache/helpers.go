package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const setTimeout = 200 * time.Millisecond

// SetWithTimeout escribe en caché con un contexto propio y acotado: la
// petición original puede cancelarse sin dejar la escritura a medias.
// ttl 0 usa el TTL por defecto de la caché.
func SetWithTimeout(cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}

	cacheCtx, cancel := context.WithTimeout(context.Background(), setTimeout)
	defer cancel()

	if err := cache.Set(cacheCtx, key, value, ttl); err != nil {
		log.Warn("Cache update failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateSync borra la clave antes de responder, para que la siguiente
// lectura no vea un valor anterior a la escritura.
func InvalidateSync(ctx context.Context, cache Cache, key string, log *zap.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Delete(ctx, key); err != nil {
		log.Warn("Cache deletion failed", zap.String("key", key), zap.Error(err))
	}
}
