package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// LRU is the in-process backend. Expiry is checked on read.
type LRU struct {
	lru *lru.Cache[string, entry]
	now func() time.Time
}

func NewLRU(size int) (*LRU, error) {
	if size < 1 {
		size = 1
	}
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{
		lru: c,
		now: time.Now,
	}, nil
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value; a non-positive ttl never expires.
func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

func (c *LRU) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *LRU) Flush(context.Context) error {
	c.lru.Purge()
	return nil
}

func (c *LRU) Len() int {
	return c.lru.Len()
}
