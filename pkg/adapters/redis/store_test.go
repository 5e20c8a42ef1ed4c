package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/bardic/pkg/adapters/redis"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleSave(passage string) *domain.SaveData {
	return &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		Timestamp:        time.Now().UTC(),
		CurrentPassageID: passage,
		State:            map[string]any{"foo": "bar"},
	}
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunSaveStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "slot-ttl", sampleSave("node1")))

	saves, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "slot-ttl", saves[0].ID)

	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "slot-ttl")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)

	saves, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, saves)

	members, err := client.ZRange(ctx, "bardic:save:index", 0, -1).Result()
	require.NoError(t, err)
	assert.Empty(t, members, "expired entries should be pruned from the index")
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-save", sampleSave("start")))

	assert.True(t, mr.Exists("custom:app:my-save"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	saves, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "my-save", saves[0].ID)
}
