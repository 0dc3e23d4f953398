// Package cache guarda en Redis la consulta de actividad reciente del libro.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// DefaultKey hash de Redis donde se guardan las respuestas, un campo por generación y par de límites.
const DefaultKey = "stock-ledger:activity"

var (
	_ inventory.ActivityCache    = (*ActivityCache)(nil)
	_ inventory.MovementNotifier = (*ActivityCache)(nil)
)

// ActivityCache caché de lectura de la actividad reciente.
// Cada escritura confirmada en el libro avanza la generación (Notify). Las respuestas se guardan bajo la
// generación leída antes de consultar el almacén, así que una lectura que compite con una escritura
// nunca deja servible un resultado anterior a ella.
// Redis caído degrada a consultar el almacén: los errores se registran y se tratan como fallo de caché.
type ActivityCache struct {
	client *redis.Client
	key    string
	genKey string
	ttl    time.Duration
	log    *logger.Logger

	// pending queda en true si Notify no pudo avanzar la generación; la siguiente lectura lo reintenta
	// antes de servir nada.
	pending atomic.Bool
}

// NewActivityCache construye la caché sobre un cliente existente.
func NewActivityCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ActivityCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ActivityCache{client: client, key: DefaultKey, genKey: DefaultKey + ":gen", ttl: ttl, log: log}
}

// NewClient abre el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Field campo del hash para una generación y un par de límites.
func Field(generation int64, limitIn, limitOut int) string {
	return fmt.Sprintf("%d:%d:%d", generation, limitIn, limitOut)
}

// Get implementa inventory.ActivityCache.
func (c *ActivityCache) Get(ctx context.Context, limitIn, limitOut int) (*dto.ActivityResponse, int64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("caché de actividad no disponible")
		return nil, -1, false
	}
	raw, err := c.client.HGet(ctx, c.key, Field(gen, limitIn, limitOut)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("caché de actividad no disponible")
			return nil, -1, false
		}
		return nil, gen, false
	}
	var activity dto.ActivityResponse
	if err := json.Unmarshal(raw, &activity); err != nil {
		c.log.Warn().Err(err).Msg("entrada de caché de actividad corrupta")
		return nil, gen, false
	}
	c.log.Debug().Int64("generation", gen).Int("limit_in", limitIn).Int("limit_out", limitOut).Msg("cache hit actividad")
	return &activity, gen, true
}

// Set implementa inventory.ActivityCache.
func (c *ActivityCache) Set(ctx context.Context, generation int64, limitIn, limitOut int, activity *dto.ActivityResponse) {
	if generation < 0 {
		return
	}
	raw, err := json.Marshal(activity)
	if err != nil {
		c.log.Warn().Err(err).Msg("no se pudo serializar la actividad")
		return
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.key, Field(generation, limitIn, limitOut), raw)
		pipe.Expire(ctx, c.key, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("no se pudo guardar la actividad en caché")
	}
}

// Notify implementa inventory.MovementNotifier: avanza la generación y descarta lo guardado.
func (c *ActivityCache) Notify(ctx context.Context, event inventory.MovementEvent) error {
	if err := c.advance(ctx); err != nil {
		c.pending.Store(true)
		return fmt.Errorf("invalidar caché de actividad (%s): %w", event.Type, err)
	}
	return nil
}

// generation lee la generación vigente, reintentando antes un avance pendiente.
func (c *ActivityCache) generation(ctx context.Context) (int64, error) {
	if c.pending.Swap(false) {
		if err := c.advance(ctx); err != nil {
			c.pending.Store(true)
			return -1, err
		}
	}
	gen, err := c.client.Get(ctx, c.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return -1, err
	}
	return gen, nil
}

func (c *ActivityCache) advance(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	return err
}
