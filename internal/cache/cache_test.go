package cache

import (
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	c := New()
	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned ok=true")
	}
	c.Set("k", []byte("v"), 0)
	v, ok := c.Get("k")
	if !ok || string(v) != "v" {
		t.Errorf("Get(k) = %q,%v want v,true", v, ok)
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := New()
	c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired key still present")
	}
}

func TestMemorySetCopiesValue(t *testing.T) {
	c := New()
	buf := []byte("orig")
	c.Set("k", buf, 0)
	buf[0] = 'X'
	v, _ := c.Get("k")
	if string(v) != "orig" {
		t.Errorf("cache value mutated via caller buffer: got %q", v)
	}
}
