package factory

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harees/url-classifier/internal/adapters/filter"
	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/dataset"
	"github.com/harees/url-classifier/internal/utils"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, values map[string]any) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateCacheRepository(t *testing.T) {
	logger := zap.NewNop()

	repo, err := NewCacheFactory(testConfig(t, map[string]any{"cache.enabled": false}), logger).CreateCacheRepository()
	if err != nil || repo != nil {
		t.Fatalf("disabled cache = %v, %v", repo, err)
	}

	repo, err = NewCacheFactory(testConfig(t, map[string]any{"cache.cleanup_frequency": "0s"}), logger).CreateCacheRepository()
	if err != nil || repo == nil {
		t.Fatalf("memory cache = %v, %v", repo, err)
	}

	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	repo, err = NewCacheFactory(testConfig(t, map[string]any{
		"cache.type":              "sqlite",
		"cache.sqlite_path":       path,
		"cache.cleanup_frequency": "0s",
	}), logger).CreateCacheRepository()
	if err != nil {
		t.Fatalf("sqlite cache: %v", err)
	}
	if stopper, ok := repo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	if _, err := NewCacheFactory(testConfig(t, map[string]any{"cache.type": "redis"}), logger).CreateCacheRepository(); err == nil {
		t.Fatal("expected error for unsupported cache type")
	}
	if _, err := NewCacheFactory(testConfig(t, map[string]any{"cache.ttl": "soon"}), logger).CreateCacheRepository(); err == nil {
		t.Fatal("expected error for invalid ttl")
	}
}

func TestCreateHistoryRepository(t *testing.T) {
	logger := zap.NewNop()

	repo, err := NewHistoryFactory(testConfig(t, nil), logger).CreateHistoryRepository()
	if err != nil || repo == nil {
		t.Fatalf("memory history = %v, %v", repo, err)
	}

	if _, err := NewHistoryFactory(testConfig(t, map[string]any{"history.type": "csv"}), logger).CreateHistoryRepository(); err == nil {
		t.Fatal("expected error for unsupported history type")
	}
}

func TestCreateStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte("URL,Category\nhttps://github.com,official\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewDatasetFactory(testConfig(t, map[string]any{"dataset.path": path}), zap.NewNop())
	store, err := f.CreateStore()
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if c, ok := store.Lookup("https://github.com"); !ok || c != core.CategoryOfficial {
		t.Fatalf("Lookup = %v, %v", c, ok)
	}

	w, err := f.CreateWatcher(store)
	if err != nil || w == nil {
		t.Fatalf("CreateWatcher = %v, %v", w, err)
	}

	missing := NewDatasetFactory(testConfig(t, map[string]any{"dataset.path": filepath.Join(t.TempDir(), "none.csv")}), zap.NewNop())
	if _, err := missing.CreateStore(); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestCreateFilters(t *testing.T) {
	logger := zap.NewNop()
	service := core.NewURLService(dataset.NewStore(dataset.New()), nil, nil, logger, false, 0)
	cfg := testConfig(t, map[string]any{"server.filters": []string{"http", "SMTP"}})

	f := NewFilterFactory(cfg, logger, service, nil, utils.NewTextProcessor(logger))
	filters, err := f.CreateFilters()
	if err != nil {
		t.Fatalf("CreateFilters: %v", err)
	}
	if len(filters) != 2 {
		t.Fatalf("got %d filters", len(filters))
	}
	if _, ok := filters[0].(*filter.HTTPFilter); !ok {
		t.Errorf("filters[0] = %T", filters[0])
	}
	if _, ok := filters[1].(*filter.SMTPFilter); !ok {
		t.Errorf("filters[1] = %T", filters[1])
	}

	for _, name := range []string{"milter", "cli"} {
		if _, err := f.CreateFilter(name); err == nil {
			t.Fatalf("expected error for unsupported filter %q", name)
		}
	}
}

func TestCreateCliFilter(t *testing.T) {
	logger := zap.NewNop()
	service := core.NewURLService(dataset.NewStore(dataset.New()), nil, nil, logger, false, 0)
	cfg := testConfig(t, map[string]any{"cli.verbose": true})

	cli, err := NewFilterFactory(cfg, logger, service, nil, utils.NewTextProcessor(logger)).CreateCliFilter()
	if err != nil {
		t.Fatalf("CreateCliFilter: %v", err)
	}

	var buf bytes.Buffer
	cli.SetOutput(&buf)
	if _, err := cli.ProcessURL(context.Background(), "https://unknown.example"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Processing time:") {
		t.Fatalf("verbose output missing: %q", buf.String())
	}
}
