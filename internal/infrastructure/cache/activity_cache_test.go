package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
)

// unreachable cliente contra un puerto cerrado: toda operación falla rápido.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// live cliente contra REDIS_TEST_ADDR; sin la variable el test se omite.
func live(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR no definido")
	}
	client, err := cache.NewClient(context.Background(), addr, "", 15)
	require.NoError(t, err)
	require.NoError(t, client.Del(context.Background(), cache.DefaultKey, cache.DefaultKey+":gen").Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestField(t *testing.T) {
	assert.Equal(t, "3:10:25", cache.Field(3, 10, 25))
}

func TestActivityCache_RedisCaidoDegrada(t *testing.T) {
	c := cache.NewActivityCache(unreachable(t), time.Minute, nil)
	ctx := context.Background()

	c.Set(ctx, 0, 10, 10, &dto.ActivityResponse{})
	got, gen, ok := c.Get(ctx, 10, 10)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, int64(-1), gen, "sin generación no se guarda nada")

	err := c.Notify(ctx, inventory.MovementEvent{Type: inventory.EventStockSold})
	assert.Error(t, err, "el motor registra el error sin deshacer la escritura")

	_, gen, ok = c.Get(ctx, 10, 10)
	assert.False(t, ok)
	assert.Equal(t, int64(-1), gen)
}

func TestActivityCache_GeneracionDescartaLecturaVieja(t *testing.T) {
	c := cache.NewActivityCache(live(t), time.Minute, nil)
	ctx := context.Background()
	stale := &dto.ActivityResponse{StockIn: []dto.MovementDTO{{ID: "viejo"}}}

	_, gen, ok := c.Get(ctx, 10, 10)
	require.False(t, ok)
	require.GreaterOrEqual(t, gen, int64(0))

	// La escritura confirma mientras la lectura consultaba el almacén.
	require.NoError(t, c.Notify(ctx, inventory.MovementEvent{Type: inventory.EventStockCleared}))
	c.Set(ctx, gen, 10, 10, stale)

	got, next, ok := c.Get(ctx, 10, 10)
	assert.False(t, ok, "lo guardado con la generación anterior no se sirve")
	assert.Nil(t, got)
	assert.Equal(t, gen+1, next)

	c.Set(ctx, next, 10, 10, &dto.ActivityResponse{})
	got, _, ok = c.Get(ctx, 10, 10)
	assert.True(t, ok)
	assert.Empty(t, got.StockIn)
}

func TestNewClient_SinServidor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := cache.NewClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
