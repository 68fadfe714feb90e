package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AsyncCacheSet actualiza la caché en background sin bloquear al llamador.
// Usa su propio contexto: la petición original puede haber terminado ya.
func AsyncCacheSet(cache Cache, key string, value interface{}, ttl time.Duration, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		if err := cache.Set(cacheCtx, key, value, int(ttl.Seconds())); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}
