package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when a slot holds no save.
	ErrNotFound = errors.New("save: slot not found")
	// ErrBadSlot is returned for slot names that cannot be stored safely.
	ErrBadSlot = errors.New("save: invalid slot name")
)

// Store persists serialized saves by slot name.
type Store interface {
	Put(ctx context.Context, slot string, data []byte) error
	Get(ctx context.Context, slot string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, slot string) error
}

// ValidSlot reports whether a slot name is usable: non-empty, no path
// separators, no leading dot.
func ValidSlot(slot string) bool {
	return slot != "" &&
		!strings.ContainsAny(slot, `/\`) &&
		!strings.HasPrefix(slot, ".") &&
		strings.TrimSpace(slot) == slot
}

func checkSlot(slot string) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: %q", ErrBadSlot, slot)
	}
	return nil
}

// FileStore keeps one JSON file per slot in a directory.
type FileStore struct {
	Dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (f *FileStore) path(slot string) string {
	return filepath.Join(f.Dir, slot+".json")
}

// Put writes a save file.
func (f *FileStore) Put(_ context.Context, slot string, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("save: create dir: %w", err)
	}
	if err := os.WriteFile(f.path(slot), data, 0o644); err != nil {
		return fmt.Errorf("save: write %s: %w", slot, err)
	}
	return nil
}

// Get reads a save file.
func (f *FileStore) Get(_ context.Context, slot string) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("save: read %s: %w", slot, err)
	}
	return data, nil
}

// List returns the stored slot names in sorted order.
func (f *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("save: list: %w", err)
	}
	var slots []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		slots = append(slots, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(slots)
	return slots, nil
}

// Delete removes a save file.
func (f *FileStore) Delete(_ context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	err := os.Remove(f.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	return err
}

// RedisStore keeps saves as string keys under a prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// DefaultRedisPrefix namespaces save keys.
const DefaultRedisPrefix = "dialoguecore:save:"

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Connected to Redis for save storage", "addr", opt.Addr)
	return NewRedisStoreFromClient(rdb, DefaultRedisPrefix, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, prefix: prefix, logger: logger}
}

// Put stores a save without expiry.
func (r *RedisStore) Put(ctx context.Context, slot string, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+slot, data, 0).Err(); err != nil {
		r.logger.Error("Failed to store save", "slot", slot, "error", err)
		return fmt.Errorf("save: redis set %s: %w", slot, err)
	}
	r.logger.Debug("Save stored", "slot", slot, "bytes", len(data))
	return nil
}

// Get loads a save.
func (r *RedisStore) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.prefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	if err != nil {
		r.logger.Error("Failed to load save", "slot", slot, "error", err)
		return nil, fmt.Errorf("save: redis get %s: %w", slot, err)
	}
	return data, nil
}

// List returns the stored slot names in sorted order.
func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	var slots []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		slots = append(slots, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("save: redis scan: %w", err)
	}
	sort.Strings(slots)
	return slots, nil
}

// Delete removes a save.
func (r *RedisStore) Delete(ctx context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	n, err := r.client.Del(ctx, r.prefix+slot).Result()
	if err != nil {
		return fmt.Errorf("save: redis del %s: %w", slot, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, slot)
	}
	return nil
}

// Close closes the redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
