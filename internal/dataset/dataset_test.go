package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harees/url-classifier/internal/core"
	"go.uber.org/zap"
)

const sampleCSV = `URL,Category,Notes
https://GitHub.com/,Official,code hosting
https://paypal-login.example, malicious ,
http://deals.example,SUSPICIOUS,
,official,blank url
https://old.example,archived,
https://github.com,official,duplicate
`

func TestLoad(t *testing.T) {
	d, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if d.Len() != 4 {
		t.Fatalf("Len = %d, want 4", d.Len())
	}
	if d.Skipped() != 1 {
		t.Fatalf("Skipped = %d, want 1", d.Skipped())
	}

	cases := []struct {
		key  string
		want core.TrustCategory
		ok   bool
	}{
		{"https://github.com", core.CategoryOfficial, true},
		{"https://paypal-login.example", core.CategoryMalicious, true},
		{"http://deals.example", core.CategorySuspicious, true},
		{"https://old.example", core.TrustCategory("archived"), true},
		{"https://unknown.example", "", false},
	}
	for _, tc := range cases {
		got, ok := d.Lookup(tc.key)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tc.key, got, ok, tc.want, tc.ok)
		}
	}

	counts := d.Counts()
	if counts[core.CategoryOfficial] != 1 || counts[core.CategoryMalicious] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestLoadHeaderCaseAndOrder(t *testing.T) {
	d, err := Load(strings.NewReader("\ufeffcategory,url\nofficial,https://a.example\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c, ok := d.Lookup("https://a.example"); !ok || c != core.CategoryOfficial {
		t.Fatalf("Lookup = %q, %v", c, ok)
	}
}

func TestLoadFailures(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty source", "", ErrEmpty},
		{"header only", "URL,Category\n", ErrEmpty},
		{"only blank urls", "URL,Category\n,official\n", ErrEmpty},
		{"missing category column", "URL,Label\nhttps://a,official\n", ErrMissingColumn},
		{"missing url column", "Link,Category\nhttps://a,official\n", ErrMissingColumn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.input))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	if _, err := Load(strings.NewReader("URL,Category\nhttps://a,official,extra\n")); err == nil {
		t.Fatal("expected error for ragged row")
	}
	if _, err := Load(strings.NewReader("URL,Category\n\"https://a,official\n")); err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestLoadFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if d.Len() != 4 {
		t.Fatalf("Len = %d", d.Len())
	}
}

func TestNewLastWriteWins(t *testing.T) {
	d := New(
		Row{URL: "https://a.example/", Category: "official"},
		Row{URL: "HTTPS://A.EXAMPLE", Category: "malicious"},
	)
	if c, _ := d.Lookup("https://a.example"); c != core.CategoryMalicious {
		t.Fatalf("Lookup = %q, want malicious", c)
	}
}

func TestNilDataset(t *testing.T) {
	var d *Dataset
	if _, ok := d.Lookup("x"); ok {
		t.Fatal("nil dataset matched")
	}
	if d.Len() != 0 {
		t.Fatal("nil dataset has entries")
	}
}

func TestStoreSwap(t *testing.T) {
	s := NewStore(New(Row{URL: "https://a.example", Category: "official"}))
	if s.Version() != 1 {
		t.Fatalf("Version = %d", s.Version())
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c, ok := s.Lookup("https://a.example")
				if !ok || (c != core.CategoryOfficial && c != core.CategoryMalicious) {
					t.Errorf("torn read: %q %v", c, ok)
					return
				}
			}
		}()
	}
	v := s.Swap(New(Row{URL: "https://a.example", Category: "malicious"}))
	wg.Wait()

	if v != 2 || s.Version() != 2 {
		t.Fatalf("version after swap = %d/%d", v, s.Version())
	}
	if c, _ := s.Lookup("https://a.example"); c != core.CategoryMalicious {
		t.Fatalf("Lookup after swap = %q", c)
	}
	if s.Current().Len() != 1 {
		t.Fatal("Current does not expose swapped dataset")
	}
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte("URL,Category\nhttps://a.example,official\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(d)
	w := NewWatcher(path, store, zap.NewNop(), 10*time.Millisecond)

	if err := os.WriteFile(path, []byte("URL,Category\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); err == nil {
		t.Fatal("expected reload of empty dataset to fail")
	}
	if c, _ := store.Lookup("https://a.example"); c != core.CategoryOfficial || store.Version() != 1 {
		t.Fatal("failed reload replaced the live dataset")
	}

	if err := os.WriteFile(path, []byte("URL,Category\nhttps://a.example,malicious\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if c, _ := store.Lookup("https://a.example"); c != core.CategoryMalicious || store.Version() != 2 {
		t.Fatal("reload did not swap in the new dataset")
	}
}

func TestWatcherPicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte("URL,Category\nhttps://a.example,official\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(d)
	w := NewWatcher(path, store, zap.NewNop(), 10*time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("URL,Category\nhttps://a.example,suspicious\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c, _ := store.Lookup("https://a.example"); c == core.CategorySuspicious {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not reload the dataset")
}

func TestWatcherStopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte("URL,Category\nhttps://a.example,official\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	idle := NewWatcher(path, NewStore(d), zap.NewNop(), time.Millisecond)
	idle.Stop()
	idle.Stop()

	w := NewWatcher(path, NewStore(d), zap.NewNop(), time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestSampleDatasetLoads(t *testing.T) {
	d, err := LoadFile(filepath.Join("..", "..", "configs", "links.csv"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	counts := d.Counts()
	if counts[core.CategoryOfficial] == 0 || counts[core.CategorySuspicious] == 0 || counts[core.CategoryMalicious] == 0 {
		t.Fatalf("sample dataset should cover every category, got %v", counts)
	}
	if c, ok := d.Lookup(core.NormalizeKey("https://GitHub.com/")); !ok || c != core.CategoryOfficial {
		t.Fatalf("Lookup(github) = %v, %v", c, ok)
	}
}
