package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harees/url-classifier/internal/core"
	"go.uber.org/zap"
)

func sampleEntry(key string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		Key: key,
		Verdict: core.Verdict{
			Status: core.StatusDangerous,
			Color:  core.ColorDanger,
			Reason: "Known malicious website",
			Score:  0.1,
		},
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// exerciseRepository runs the same contract checks against every backend
func exerciseRepository(t *testing.T, repo core.CacheRepository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "1|https://missing.example"); err == nil {
		t.Fatal("expected miss for unknown key")
	}

	entry := sampleEntry("1|https://evil.example", time.Hour)
	if err := repo.Set(ctx, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := repo.Get(ctx, entry.Key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Verdict != entry.Verdict {
		t.Fatalf("Get verdict = %+v, want %+v", got.Verdict, entry.Verdict)
	}

	updated := sampleEntry(entry.Key, time.Hour)
	updated.Verdict.Reason = "updated"
	if err := repo.Set(ctx, updated); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if got, err := repo.Get(ctx, entry.Key); err != nil || got.Verdict.Reason != "updated" {
		t.Fatalf("overwrite not visible: %+v, %v", got, err)
	}

	expired := sampleEntry("1|https://old.example", -time.Minute)
	if err := repo.Set(ctx, expired); err != nil {
		t.Fatalf("Set expired: %v", err)
	}
	if _, err := repo.Get(ctx, expired.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired entry: err = %v, want ErrNotFound", err)
	}
	if err := repo.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if err := repo.Delete(ctx, entry.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, entry.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted entry: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	exerciseRepository(t, c)
}

func TestMemoryCacheErrors(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	if _, err := c.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_ = c.Set(ctx, sampleEntry("old", -time.Second))
	_, err := c.Get(ctx, "old")
	if !errors.Is(err, ErrExpired) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrExpired wrapping ErrNotFound", err)
	}
	_ = c.Set(ctx, sampleEntry("fresh", time.Hour))
	if err := c.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len after cleanup = %d, want 1", c.Len())
	}
}

func TestMemoryCacheCopiesEntries(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	e := sampleEntry("k", time.Hour)
	_ = c.Set(ctx, e)
	e.Verdict.Reason = "mutated"

	got, _ := c.Get(ctx, "k")
	if got.Verdict.Reason == "mutated" {
		t.Fatal("cache kept a reference to the caller's entry")
	}
}

func TestMemoryCacheBackgroundCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 10*time.Millisecond)
	defer c.Stop()
	_ = c.Set(context.Background(), sampleEntry("old", -time.Second))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("background cleanup did not remove expired entry")
}

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), zap.NewNop(), 0)
	if err != nil {
		t.Fatalf("NewSQLiteCache: %v", err)
	}
	defer c.Stop()
	exerciseRepository(t, c)

	if _, err := c.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
