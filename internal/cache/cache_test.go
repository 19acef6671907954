package cache

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBlob_HitWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := New(10*time.Second, WithClock(clock.Now))

	c.Set([]byte(`{"filieres":{}}`))
	clock.Advance(9 * time.Second)

	data, ok := c.Get()
	if !ok {
		t.Fatal("expected cache hit within TTL")
	}
	if string(data) != `{"filieres":{}}` {
		t.Errorf("unexpected payload %q", data)
	}
}

func TestBlob_ExpiresAtTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := New(10*time.Second, WithClock(clock.Now))

	c.Set([]byte("x"))
	clock.Advance(10 * time.Second)

	if _, ok := c.Get(); ok {
		t.Error("cache consulted past its TTL")
	}
}

func TestBlob_Invalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set([]byte("x"))
	c.Invalidate()

	if _, ok := c.Get(); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestBlob_ReturnsCopies(t *testing.T) {
	c := New(time.Minute)
	src := []byte("abc")
	c.Set(src)
	src[0] = 'z'

	first, _ := c.Get()
	first[1] = 'z'

	second, _ := c.Get()
	if string(second) != "abc" {
		t.Errorf("cached bytes aliased: %q", second)
	}
}

func TestBlob_ZeroTTLDisablesCache(t *testing.T) {
	c := New(0)
	c.Set([]byte("x"))

	if _, ok := c.Get(); ok {
		t.Error("expected zero TTL to disable caching")
	}
}

func TestBlob_SetIfGeneration(t *testing.T) {
	c := New(time.Minute)
	gen := c.Generation()

	c.Invalidate()

	if c.SetIfGeneration(gen, []byte("stale")) {
		t.Fatal("stale payload stored after Invalidate")
	}
	if _, ok := c.Get(); ok {
		t.Error("expected miss")
	}

	if !c.SetIfGeneration(c.Generation(), []byte("fresh")) {
		t.Fatal("fresh payload rejected")
	}
	if got, ok := c.Get(); !ok || string(got) != "fresh" {
		t.Errorf("Get = %q, %v", got, ok)
	}
}
