package inspector

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	res, err := Parse("ads.csv", []byte("BRAND,IMPRESSIONS\nA,10\nB,0\n"))
	require.NoError(t, err)
	return &Snapshot{Name: "ads.csv", Columns: res.Columns, Records: res.Records, SavedAt: time.Now()}
}

func TestMemorySnapshotStore(t *testing.T) {
	store := NewMemorySnapshotStore()
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, testSnapshot(t)))
	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ads.csv", snap.Name)
	assert.Len(t, snap.Records, 2)
}

func TestRedisSnapshotStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSnapshotStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, store.Save(ctx, testSnapshot(t)))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ads.csv", snap.Name)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, TextCell("A"), snap.Records[0].Fields["BRAND"])

	// Each save overwrites the previous mirror wholesale.
	next := testSnapshot(t)
	next.Name = "other.csv"
	require.NoError(t, store.Save(ctx, next))
	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "other.csv", snap.Name)
}

func TestRedisSnapshotStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	store := NewRedisSnapshotStore(client, time.Hour)

	err := store.Save(context.Background(), testSnapshot(t))
	require.Error(t, err, "callers treat mirror errors as non-fatal")
}
