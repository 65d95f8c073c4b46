package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalSetGetDelete(t *testing.T) {
	c := NewLocal(time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("plan:1", "pro")
	v, ok := c.Get("plan:1")
	assert.True(t, ok)
	assert.Equal(t, "pro", v)

	c.Delete("plan:1")
	_, ok = c.Get("plan:1")
	assert.False(t, ok)
}

func TestLocalTTLExpires(t *testing.T) {
	c := NewLocal(time.Minute)

	c.SetWithTTL("short", "1", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestSetupSelectsBackend(t *testing.T) {
	t.Cleanup(func() { Setup("local", "", "", 0, time.Minute) })

	Setup("redis", "127.0.0.1:6379", "", 0, time.Minute)
	_, ok := Global().(*Redis)
	assert.True(t, ok)

	Setup("local", "", "", 0, time.Minute)
	_, ok = Global().(*Local)
	assert.True(t, ok)

	// Unknown backends fall back to the in-process cache.
	Setup("memcached", "", "", 0, time.Minute)
	_, ok = Global().(*Local)
	assert.True(t, ok)
}

func TestSetupAppliesConfiguredTTL(t *testing.T) {
	t.Cleanup(func() { Setup("local", "", "", 0, time.Minute) })

	Setup("local", "", "", 0, 20*time.Millisecond)
	Global().Set("plan:9", "free")
	time.Sleep(60 * time.Millisecond)

	_, ok := Global().Get("plan:9")
	assert.False(t, ok)
}

func TestGlobalIsSingleton(t *testing.T) {
	assert.Same(t, Global(), Global())
}
