package cache

import "testing"

func TestBufferLRUPutGet(t *testing.T) {
	c := NewBufferLRU(10 * Byte)
	c.Put(1, []byte("abc"))
	got, ok := c.Get(1)
	if !ok || string(got) != "abc" {
		t.Fatalf("Get(1) = %q, %v", got, ok)
	}
}

func TestBufferLRUEviction(t *testing.T) {
	c := NewBufferLRU(2 * Byte)
	c.Put(1, []byte("a"))
	c.Put(2, []byte("c"))
	c.Put(3, []byte("d")) // evicts 1

	if _, ok := c.Get(1); ok {
		t.Fatalf("expected key 1 evicted")
	}
	if _, ok := c.Get(2); !ok {
		t.Fatalf("expected key 2 present")
	}
	if _, ok := c.Get(3); !ok {
		t.Fatalf("expected key 3 present")
	}
}

func TestBufferLRUTooBig(t *testing.T) {
	c := NewBufferLRU(2 * Byte)
	c.Put(1, []byte("abc"))
	if _, ok := c.Get(1); ok {
		t.Fatalf("oversized buffer should not be cached")
	}
}

func TestBufferLRUClear(t *testing.T) {
	c := NewBufferLRU(10 * Byte)
	c.Put(1, []byte("abc"))
	c.Clear()
	if _, ok := c.Get(1); ok {
		t.Fatalf("expected empty cache after Clear")
	}
}

func TestBufferLRUDefault(t *testing.T) {
	c := NewBufferLRUDefault()
	c.Put(1, []byte("abc"))
	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected cached value")
	}
}
