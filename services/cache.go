package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"netdash/config"
	"netdash/models"
)

// CacheMode indicates which cache backend is active
type CacheMode string

const (
	CacheModeRedis    CacheMode = "redis"
	CacheModeInMemory CacheMode = "in-memory"
)

const (
	keyStats   = "netdash:stats"
	keyDevices = "netdash:devices"
	keySystem  = "netdash:system"
	keyTraffic = "netdash:traffic:"
)

// CacheItem for in-memory fallback
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// SnapshotCache keeps the latest backend snapshots so exports and late
// dashboard clients can be served without another round trip.
type SnapshotCache struct {
	cfg *config.Config
	ttl time.Duration

	// Redis
	redis       *redis.Client
	redisCtx    context.Context
	redisCancel context.CancelFunc
	mode        CacheMode
	modeMutex   sync.RWMutex

	// In-memory fallback
	inMemoryStore sync.Map

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewSnapshotCache(cfg *config.Config) *SnapshotCache {
	ctx, cancel := context.WithCancel(context.Background())

	cs := &SnapshotCache{
		cfg:         cfg,
		ttl:         cfg.CacheTTLDuration(),
		redisCtx:    ctx,
		redisCancel: cancel,
		stopChan:    make(chan struct{}),
		mode:        CacheModeInMemory,
	}
	if cs.ttl <= 0 {
		cs.ttl = 2 * time.Minute
	}

	if cfg.Redis.Enabled {
		cs.connectRedis()
	} else {
		log.Println("Redis disabled in config, using in-memory cache only")
	}

	return cs
}

func (cs *SnapshotCache) connectRedis() {
	if cs.cfg.Redis.Address == "" {
		log.Println("Redis address not configured, using in-memory cache")
		return
	}

	options := &redis.Options{
		Addr:         cs.cfg.Redis.Address,
		Password:     cs.cfg.Redis.Password,
		DB:           cs.cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     5,
		MinIdleConns: 1,
		MaxRetries:   2,
	}

	if cs.cfg.Redis.UseTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		log.Printf("TLS enabled for Redis connection")
	}

	cs.redis = redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := cs.redis.Ping(ctx).Result()
	if err != nil {
		log.Printf("⚠️  Redis connection failed: %v", err)
		log.Printf("⚠️  Running in IN-MEMORY mode")
		cs.setMode(CacheModeInMemory)
		return
	}

	log.Printf("✓ Redis connected successfully (response: %s)", pong)
	cs.setMode(CacheModeRedis)
}

func (cs *SnapshotCache) setMode(mode CacheMode) {
	cs.modeMutex.Lock()
	defer cs.modeMutex.Unlock()
	cs.mode = mode
}

func (cs *SnapshotCache) getMode() CacheMode {
	cs.modeMutex.RLock()
	defer cs.modeMutex.RUnlock()
	return cs.mode
}

// Start launches the Redis health check loop
func (cs *SnapshotCache) Start() {
	if cs.redis == nil {
		return
	}
	go cs.runHealthCheckLoop()
}

func (cs *SnapshotCache) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopChan)
		cs.redisCancel()
		if cs.redis != nil {
			cs.redis.Close()
		}
	})
}

func (cs *SnapshotCache) runHealthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.checkRedisHealth()
		case <-cs.stopChan:
			return
		}
	}
}

// checkRedisHealth switches modes when Redis goes away or comes back
func (cs *SnapshotCache) checkRedisHealth() {
	if cs.redis == nil {
		return
	}

	mode := cs.getMode()
	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	_, err := cs.redis.Ping(ctx).Result()

	if mode == CacheModeRedis && err != nil {
		log.Printf("⚠️  Redis health check failed: %v", err)
		log.Printf("⚠️  Switching to IN-MEMORY mode")
		cs.setMode(CacheModeInMemory)
	} else if mode == CacheModeInMemory && err == nil {
		log.Printf("✓ Redis reconnected! Switching back to REDIS mode")
		cs.syncInMemoryToRedis()
		cs.setMode(CacheModeRedis)
	}
}

func (cs *SnapshotCache) syncInMemoryToRedis() {
	synced := 0
	cs.inMemoryStore.Range(func(key, value interface{}) bool {
		item := value.(*CacheItem)
		if ttl := time.Until(item.ExpiresAt); ttl > 0 {
			if err := cs.setRedis(key.(string), item.Data, ttl); err == nil {
				synced++
			}
		}
		return true
	})
	log.Printf("Synced %d snapshots to Redis", synced)
}

// ============================================
// Generic Set/Get with Redis + In-Memory
// ============================================

// Set stores data in the active backend. The in-memory copy is always kept
// so a Redis outage still has something to serve.
func (cs *SnapshotCache) Set(key string, data interface{}, ttl time.Duration) {
	cs.setInMemory(key, data, ttl)

	if cs.getMode() == CacheModeRedis {
		if err := cs.setRedis(key, data, ttl); err != nil {
			log.Printf("Redis SET failed for '%s': %v (kept in-memory)", key, err)
		}
	}
}

// get decodes the cached value for key into out
func (cs *SnapshotCache) get(key string, out interface{}) bool {
	if cs.getMode() == CacheModeRedis {
		found, err := cs.getRedis(key, out)
		if err == nil {
			return found
		}
	}

	data, ok := cs.getInMemory(key)
	if !ok {
		return false
	}
	// Round-trip through JSON so callers never share memory with the store
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (cs *SnapshotCache) setRedis(key string, data interface{}, ttl time.Duration) error {
	if cs.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return cs.redis.Set(ctx, key, jsonData, ttl).Err()
}

func (cs *SnapshotCache) getRedis(key string, out interface{}) (bool, error) {
	if cs.redis == nil {
		return false, fmt.Errorf("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	jsonData, err := cs.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(jsonData, out); err != nil {
		return false, err
	}
	return true, nil
}

func (cs *SnapshotCache) setInMemory(key string, data interface{}, ttl time.Duration) {
	cs.inMemoryStore.Store(key, &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

func (cs *SnapshotCache) getInMemory(key string) (interface{}, bool) {
	val, ok := cs.inMemoryStore.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(*CacheItem)
	if time.Now().After(item.ExpiresAt) {
		return nil, false
	}
	return item.Data, true
}

// ============================================
// Typed Helper Methods
// ============================================

func (cs *SnapshotCache) SetStats(stats *models.NetworkStats) {
	cs.Set(keyStats, stats, cs.ttl)
}

func (cs *SnapshotCache) GetStats() (*models.NetworkStats, bool) {
	var stats models.NetworkStats
	if !cs.get(keyStats, &stats) {
		return nil, false
	}
	return &stats, true
}

func (cs *SnapshotCache) SetDevices(devices []models.Device) {
	cs.Set(keyDevices, devices, cs.ttl)
}

func (cs *SnapshotCache) GetDevices() ([]models.Device, bool) {
	var devices []models.Device
	if !cs.get(keyDevices, &devices) {
		return nil, false
	}
	return devices, true
}

func (cs *SnapshotCache) SetTraffic(rangeKey string, history *models.TrafficHistory) {
	cs.Set(keyTraffic+rangeKey, history, cs.ttl)
}

func (cs *SnapshotCache) GetTraffic(rangeKey string) (*models.TrafficHistory, bool) {
	var history models.TrafficHistory
	if !cs.get(keyTraffic+rangeKey, &history) {
		return nil, false
	}
	return &history, true
}

func (cs *SnapshotCache) SetSystemInfo(info *models.SystemInfo) {
	cs.Set(keySystem, info, cs.ttl)
}

func (cs *SnapshotCache) GetSystemInfo() (*models.SystemInfo, bool) {
	var info models.SystemInfo
	if !cs.get(keySystem, &info) {
		return nil, false
	}
	return &info, true
}

// ============================================
// Utility Methods
// ============================================

func (cs *SnapshotCache) GetCacheMode() CacheMode {
	return cs.getMode()
}

func (cs *SnapshotCache) ClearCache() error {
	if cs.getMode() == CacheModeRedis && cs.redis != nil {
		ctx, cancel := context.WithTimeout(cs.redisCtx, 5*time.Second)
		defer cancel()

		iter := cs.redis.Scan(ctx, 0, "netdash:*", 0).Iterator()
		deleted := 0
		for iter.Next(ctx) {
			cs.redis.Del(ctx, iter.Val())
			deleted++
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan redis keys: %w", err)
		}
		log.Printf("Redis cache cleared (%d keys deleted)", deleted)
	}

	cs.inMemoryStore.Range(func(key, _ interface{}) bool {
		cs.inMemoryStore.Delete(key)
		return true
	})
	log.Println("In-memory cache cleared")
	return nil
}

func (cs *SnapshotCache) GetCacheStats() map[string]interface{} {
	stats := map[string]interface{}{
		"mode":        string(cs.getMode()),
		"enabled":     cs.cfg.Redis.Enabled,
		"ttl_seconds": int(cs.ttl.Seconds()),
	}

	if cs.getMode() == CacheModeRedis && cs.redis != nil {
		ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
		defer cancel()

		dbSize, err := cs.redis.DBSize(ctx).Result()
		if err == nil {
			stats["redis_keys"] = dbSize
		}
	}

	inMemCount := 0
	keys := make([]string, 0)
	cs.inMemoryStore.Range(func(key, _ interface{}) bool {
		inMemCount++
		keys = append(keys, strings.TrimPrefix(key.(string), "netdash:"))
		return true
	})
	stats["in_memory_keys"] = inMemCount
	stats["keys"] = keys

	return stats
}
