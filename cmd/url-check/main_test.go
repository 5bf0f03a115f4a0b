package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harees/url-classifier/internal/adapters/filter"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/dataset"
	"github.com/harees/url-classifier/internal/di"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func testService() *core.URLService {
	store := dataset.NewStore(dataset.New(dataset.Row{URL: "https://github.com", Category: "official"}))
	return core.NewURLService(store, nil, nil, zap.NewNop(), false, 0)
}

func TestClassifyAllKeepsOrder(t *testing.T) {
	urls := []string{"https://github.com", "http://malware.example", "", "ftp://x"}
	results := classifyAll(context.Background(), testService(), urls, 2)

	if len(results) != len(urls) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Fatalf("results[%d].URL = %q", i, r.URL)
		}
	}
	if results[0].Status != core.StatusSafe || results[1].Status != core.StatusDangerous || results[3].Status != core.StatusSuspicious {
		t.Fatalf("results = %+v", results)
	}
	if results[2].Error == "" {
		t.Fatal("empty URL did not report an error")
	}
}

func TestWriteFormats(t *testing.T) {
	results := classifyAll(context.Background(), testService(), []string{"https://github.com"}, 1)

	var buf bytes.Buffer
	if err := write(&buf, "json", results); err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded[0]["url"] != "https://github.com" || decoded[0]["status"] != "Safe" || decoded[0]["score"] != 0.9 {
		t.Fatalf("json = %v", decoded)
	}

	buf.Reset()
	if err := write(&buf, "yaml", results); err != nil {
		t.Fatal(err)
	}
	var fromYAML []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &fromYAML); err != nil {
		t.Fatal(err)
	}
	if fromYAML[0]["reason"] != "Official trusted website" || fromYAML[0]["color"] != "safe" {
		t.Fatalf("yaml = %v", fromYAML)
	}

	if err := write(&buf, "xml", results); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestPrintAll(t *testing.T) {
	cli, err := filter.NewCliFilter(testService(), zap.NewNop(), false)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	cli.SetOutput(&buf)

	if err := printAll(context.Background(), cli, []string{"https://github.com", "http://malware.example"}); err != nil {
		t.Fatalf("printAll: %v", err)
	}
	out := buf.String()
	first := strings.Index(out, "=== https://github.com ===")
	second := strings.Index(out, "=== http://malware.example ===")
	if first < 0 || second < first {
		t.Fatalf("output out of order: %q", out)
	}
	if !strings.Contains(out, "Status: Safe") || !strings.Contains(out, "Score: 0.90") || !strings.Contains(out, "Status: Dangerous") {
		t.Fatalf("output = %q", out)
	}

	buf.Reset()
	err = printAll(context.Background(), cli, []string{"https://github.com", " "})
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(buf.String(), "Error:") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestReadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("# header\nhttps://a.example\n\n  https://b.example  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := readURLs(&di.CLIFlags{InputFile: path, Args: []string{"ignored"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 || urls[1] != "https://b.example" {
		t.Fatalf("urls = %v", urls)
	}

	urls, err = readURLs(&di.CLIFlags{Args: []string{"https://c.example"}})
	if err != nil || len(urls) != 1 {
		t.Fatalf("urls = %v, %v", urls, err)
	}

	if _, err := readURLs(&di.CLIFlags{InputFile: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
