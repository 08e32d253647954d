package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liqtags/relaychat/internal/config"
	applog "github.com/liqtags/relaychat/pkg/log"
)

// RedisRegistry is a Registry backed by Redis keys with a TTL. A
// heartbeat refreshes keys owned by this instance so entries for
// crashed processes expire on their own.
type RedisRegistry struct {
	client            *redis.Client
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	managedKeys       map[string]string // key -> username
	mu                sync.RWMutex
	cancel            context.CancelFunc
}

// NewRedisRegistry connects to Redis and starts the key heartbeat.
func NewRedisRegistry(cfg config.RedisConfig) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	r := &RedisRegistry{
		client:            client,
		prefix:            cfg.PresencePrefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		managedKeys:       make(map[string]string),
	}

	hbCtx, hbCancel := context.WithCancel(context.Background())
	r.cancel = hbCancel
	go r.heartbeatLoop(hbCtx)

	return r, nil
}

func (r *RedisRegistry) keyFor(connID string) string {
	return fmt.Sprintf("%s:conn:%s", r.prefix, connID)
}

func (r *RedisRegistry) Register(ctx context.Context, connID, username string) error {
	key := r.keyFor(connID)

	if err := r.client.Set(ctx, key, username, r.keyTTL).Err(); err != nil {
		return fmt.Errorf("register connection: %w", err)
	}

	r.mu.Lock()
	r.managedKeys[key] = username
	r.mu.Unlock()

	applog.L().Info().Str(applog.FieldConnID, connID).Str(applog.FieldUsername, username).Msg("registered presence")
	return nil
}

func (r *RedisRegistry) Deregister(ctx context.Context, connID string) error {
	key := r.keyFor(connID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("deregister connection: %w", err)
	}

	r.mu.Lock()
	delete(r.managedKeys, key)
	r.mu.Unlock()

	applog.L().Info().Str(applog.FieldConnID, connID).Msg("deregistered presence")
	return nil
}

// Count scans the presence keyspace so it sees connections held by
// other instances as well.
func (r *RedisRegistry) Count(ctx context.Context) (int, error) {
	var count int
	iter := r.client.Scan(ctx, 0, r.prefix+":conn:*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan presence keys: %w", err)
	}
	return count, nil
}

func (r *RedisRegistry) Usernames(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+":conn:*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan presence keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch presence values: %w", err)
	}

	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *RedisRegistry) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshKeys(ctx)
		}
	}
}

func (r *RedisRegistry) refreshKeys(ctx context.Context) {
	r.mu.RLock()
	keys := make(map[string]string, len(r.managedKeys))
	for k, v := range r.managedKeys {
		keys[k] = v
	}
	r.mu.RUnlock()

	for key, username := range keys {
		if err := r.client.Set(ctx, key, username, r.keyTTL).Err(); err != nil {
			applog.L().Error().Str("key", key).Err(err).Msg("failed to refresh presence key")
		}
	}
}

func (r *RedisRegistry) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	return r.client.Close()
}
