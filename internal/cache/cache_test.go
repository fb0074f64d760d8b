package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/verifier/internal/model"
)

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("https://news.site/a")
	k2 := CacheKey("https://news.site/b")
	if !strings.HasPrefix(k1, "verifier:liveness:v1:") {
		t.Errorf("unexpected prefix: %s", k1)
	}
	if k1 == k2 {
		t.Error("expected distinct keys for distinct URLs")
	}
	if k1 != CacheKey("https://news.site/a") {
		t.Error("expected stable keys")
	}
}

func TestDiskCache_SetGetDelete(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("https://news.site/a")

	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != "payload" {
		t.Fatalf("expected payload, got %q %v", got, ok)
	}

	name := strings.TrimPrefix(key, keyPrefix)
	if _, err := os.Stat(filepath.Join(dir, name[:2], name+".cache")); err != nil {
		t.Errorf("expected sharded cache file: %v", err)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("deleting a missing key should succeed, got %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("https://news.site/old")
	if err := c.Set(key, []byte("x"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	memory := NewMemoryCache(time.Minute, 0)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	layered := NewLayeredCache(memory, disk, time.Minute)

	key := CacheKey("https://news.site/a")
	if err := disk.Set(key, []byte("from-disk"), 0); err != nil {
		t.Fatal(err)
	}
	if memory.Len() != 0 {
		t.Fatal("memory should start empty")
	}

	got, ok := layered.Get(key)
	if !ok || string(got) != "from-disk" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := memory.Get(key); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := layered.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, ok := layered.Get(key); ok {
		t.Error("expected miss after delete")
	}
}

func TestNew(t *testing.T) {
	if c := New(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}

func TestVerdictCache(t *testing.T) {
	vc := NewVerdictCache(NewMemoryCache(time.Minute, 0))

	valid := model.Verdict{URL: "https://news.site/a", Reason: model.ReasonValid, StatusCode: 200, Attempts: 1}
	if err := vc.Put(valid); err != nil {
		t.Fatal(err)
	}
	got, ok := vc.Get(valid.URL)
	if !ok || got.Reason != model.ReasonValid || !got.Cached || got.StatusCode != 200 {
		t.Errorf("unexpected cached verdict: %+v %v", got, ok)
	}

	transient := model.Verdict{URL: "https://news.site/b", Reason: model.ReasonTimeout, Attempts: 3}
	if err := vc.Put(transient); err != nil {
		t.Fatal(err)
	}
	if _, ok := vc.Get(transient.URL); ok {
		t.Error("transient verdicts must not be cached")
	}

	var nilCache *VerdictCache
	if err := nilCache.Put(valid); err != nil {
		t.Errorf("nil cache put: %v", err)
	}
	if _, ok := nilCache.Get(valid.URL); ok {
		t.Error("nil cache must miss")
	}
}

func TestMemoryCache_MaxEntries(t *testing.T) {
	c := NewMemoryCache(time.Minute, 2)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(k, []byte(k), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("c"); ok {
		t.Error("new key should be dropped when full")
	}

	if err := c.Set("a", []byte("a2"), 0); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Get("a"); string(got) != "a2" {
		t.Errorf("existing key should refresh when full, got %q", got)
	}

	if err := c.Set("b", []byte("b"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if err := c.Set("c", []byte("c"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expired entries should free room")
	}
}
