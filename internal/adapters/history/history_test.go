package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harees/url-classifier/internal/core"
	"go.uber.org/zap"
)

func record(i int) *core.ActionRecord {
	score := float64(i) / 10
	return &core.ActionRecord{
		URL:       fmt.Sprintf("https://site%d.example/login", i),
		Domain:    fmt.Sprintf("site%d.example", i),
		Level:     "warning",
		Score:     &score,
		Reason:    "Suspicious keyword detected: login",
		Action:    core.ActionProceed,
		Timestamp: time.UnixMilli(int64(1700000000000 + i)).UTC(),
	}
}

func exerciseHistory(t *testing.T, repo core.HistoryRepository, max int) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < max+3; i++ {
		if err := repo.Add(ctx, record(i)); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}

	all, err := repo.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != max {
		t.Fatalf("len = %d, want %d", len(all), max)
	}
	if all[0].URL != record(max+2).URL {
		t.Fatalf("newest = %q", all[0].URL)
	}
	if all[len(all)-1].URL != record(3).URL {
		t.Fatalf("oldest = %q", all[len(all)-1].URL)
	}

	two, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two) != 2 || two[1].URL != record(max+1).URL {
		t.Fatalf("Recent(2) = %+v", two)
	}
	if two[0].Score == nil || *two[0].Score != float64(max+2)/10 {
		t.Fatal("score not preserved")
	}
	if !two[0].Timestamp.Equal(record(max + 2).Timestamp) {
		t.Fatalf("timestamp = %v", two[0].Timestamp)
	}
}

func TestMemoryHistory(t *testing.T) {
	exerciseHistory(t, NewMemoryHistory(5), 5)
}

func TestMemoryHistoryDefaultSize(t *testing.T) {
	h := NewMemoryHistory(0)
	if h.max != DefaultMaxRecords {
		t.Fatalf("max = %d", h.max)
	}
}

func TestSQLiteHistory(t *testing.T) {
	h, err := NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"), 5, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteHistory: %v", err)
	}
	defer h.Stop()
	exerciseHistory(t, h, 5)

	rec := record(99)
	rec.Score = nil
	if err := h.Add(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	got, err := h.Recent(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Score != nil {
		t.Fatal("nil score came back non-nil")
	}
}
