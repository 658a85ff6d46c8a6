package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSnapshot is returned when no recovery snapshot exists.
var ErrNoSnapshot = errors.New("no snapshot available")

// Snapshot is a best-effort mirror of the most recently loaded dataset,
// written wholesale on every upload and read only opportunistically for
// crash recovery. Staleness or absence degrades silently.
type Snapshot struct {
	Name    string    `json:"name"`
	Columns []string  `json:"columns"`
	Records []Record  `json:"records"`
	SavedAt time.Time `json:"saved_at"`
}

// SnapshotStore is the persistence port for the recovery mirror. It is
// injected rather than accessed as ambient global state so tests can
// substitute the in-memory implementation.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context) (*Snapshot, error)
}

// MemorySnapshotStore keeps the snapshot in process memory.
type MemorySnapshotStore struct {
	mu   sync.Mutex
	snap *Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore { return &MemorySnapshotStore{} }

func (m *MemorySnapshotStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

func (m *MemorySnapshotStore) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, ErrNoSnapshot
	}
	return m.snap, nil
}

// snapshotKey is fixed: each upload overwrites the previous mirror, never
// merges with it.
const snapshotKey = "inspector:last_dataset"

// RedisSnapshotStore persists the snapshot in Redis so recovery survives a
// server restart.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (r *RedisSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (r *RedisSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	payload, err := r.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
