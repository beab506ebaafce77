package firehose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupSuppressesWithinWindow(t *testing.T) {
	cache := newDedupCache(10 * time.Minute)
	now := time.Now()

	assert.False(t, cache.seenRecently("a|b", now))
	assert.True(t, cache.seenRecently("a|b", now.Add(time.Second)))
	assert.True(t, cache.seenRecently("a|b", now.Add(5*time.Minute)))
}

func TestDedupExpiresAfterWindow(t *testing.T) {
	cache := newDedupCache(10 * time.Minute)
	now := time.Now()

	assert.False(t, cache.seenRecently("a|b", now))
	assert.False(t, cache.seenRecently("a|b", now.Add(11*time.Minute)))
}

func TestDedupKeysIndependent(t *testing.T) {
	cache := newDedupCache(10 * time.Minute)
	now := time.Now()

	assert.False(t, cache.seenRecently("a|b", now))
	assert.False(t, cache.seenRecently("a|c", now))
	assert.False(t, cache.seenRecently("z|b", now))
}

func TestDedupPurge(t *testing.T) {
	cache := newDedupCache(10 * time.Minute)
	now := time.Now()

	cache.seenRecently("old", now)
	cache.seenRecently("fresh", now.Add(9*time.Minute))
	assert.Equal(t, 2, cache.size())

	cache.purge(now.Add(10 * time.Minute))
	assert.Equal(t, 1, cache.size())

	// The fresh entry still suppresses
	assert.True(t, cache.seenRecently("fresh", now.Add(12*time.Minute)))
}
