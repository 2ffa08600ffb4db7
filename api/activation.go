package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const activationCodeLength = 6

var errActivationCodeNotFound = errors.New("activation code not found or expired")

type activationStore interface {
	set(ctx context.Context, userID, code string, ttl time.Duration) error
	get(ctx context.Context, userID string) (string, error)
	clear(ctx context.Context, userID string) error
}

func generateActivationCode() (string, error) {
	code := make([]byte, activationCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte(n.Int64()) + '0'
	}
	return string(code), nil
}

func activationCodesMatch(expected, provided string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

type activationCacheEntry struct {
	code      string
	expiresAt time.Time
}

type memoryActivationStore struct {
	mu      sync.RWMutex
	entries map[string]activationCacheEntry
	stop    chan struct{}
}

// newMemoryActivationStore returns a store whose expired entries are evicted
// every interval until close is called.
func newMemoryActivationStore(interval time.Duration) *memoryActivationStore {
	c := &memoryActivationStore{
		entries: make(map[string]activationCacheEntry),
		stop:    make(chan struct{}),
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.evictExpired(time.Now())
			case <-c.stop:
				return
			}
		}
	}()
	return c
}

func (c *memoryActivationStore) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func (c *memoryActivationStore) set(_ context.Context, userID, code string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = activationCacheEntry{
		code:      code,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *memoryActivationStore) get(_ context.Context, userID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok || time.Now().After(e.expiresAt) {
		return "", errActivationCodeNotFound
	}
	return e.code, nil
}

func (c *memoryActivationStore) clear(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

func (c *memoryActivationStore) close() {
	close(c.stop)
}

type redisActivationStore struct {
	client *redis.Client
}

func newRedisActivationStore(url string) (*redisActivationStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisActivationStore{client: client}, nil
}

func activationKey(userID string) string {
	return fmt.Sprintf("activation:%s", userID)
}

func (s *redisActivationStore) set(ctx context.Context, userID, code string, ttl time.Duration) error {
	return s.client.Set(ctx, activationKey(userID), code, ttl).Err()
}

func (s *redisActivationStore) get(ctx context.Context, userID string) (string, error) {
	code, err := s.client.Get(ctx, activationKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errActivationCodeNotFound
		}
		return "", err
	}
	return code, nil
}

func (s *redisActivationStore) clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, activationKey(userID)).Err()
}
