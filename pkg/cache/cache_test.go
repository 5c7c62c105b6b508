package cache

import (
	"context"
	"testing"
	"time"
)

func testBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("empty cache Get = ok %v, err %v", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get after Set = ok %v, err %v", ok, err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q, want payload", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get after Delete should miss")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMemory(t *testing.T) {
	testBackend(t, NewMemory())
}

func TestFile(t *testing.T) {
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	testBackend(t, c)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	c.Set(ctx, "k", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestFileExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	c.Set(ctx, "k", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestFileClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("cleared cache should miss")
	}
}

func TestNull(t *testing.T) {
	ctx := context.Background()
	c := NewNull()
	if err := c.Set(ctx, "k", []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("null cache should always miss")
	}
}

func TestKeyerDeterministic(t *testing.T) {
	k := DefaultKeyer{}
	a, err := k.CompileKey("abc", 8)
	if err != nil {
		t.Fatalf("CompileKey: %v", err)
	}
	b, _ := k.CompileKey("abc", 8)
	if a != b {
		t.Error("same inputs should produce the same key")
	}
	c, _ := k.CompileKey("abc", 4)
	if a == c {
		t.Error("different options should produce different keys")
	}
	if got, want := a[:8], "compile:"; got != want {
		t.Errorf("prefix = %q, want %q", got, want)
	}
}

func TestScopedKeyer(t *testing.T) {
	k := ScopedKeyer{Scope: "tenant1"}
	key, err := k.CompileKey("abc", 8)
	if err != nil {
		t.Fatalf("CompileKey: %v", err)
	}
	if got := key[:8]; got != "tenant1:" {
		t.Errorf("scope prefix = %q", got)
	}
}

func TestHashStable(t *testing.T) {
	if Hash([]byte("x")) != Hash([]byte("x")) {
		t.Error("hash should be deterministic")
	}
	if len(Hash([]byte("x"))) != 64 {
		t.Errorf("hash length = %d, want 64", len(Hash([]byte("x"))))
	}
}
