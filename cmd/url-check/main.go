package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harees/url-classifier/internal/adapters/filter"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/di"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// result is one line of output
type result struct {
	URL          string `json:"url" yaml:"url"`
	core.Verdict `yaml:",inline"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

func main() {
	flags, err := di.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, service *core.URLService, cli *filter.CliFilter) error {
	defer logger.Sync()

	urls, err := readURLs(flags)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("no URLs given")
	}
	logger.Debug("Classifying URLs", zap.Int("count", len(urls)), zap.Int("workers", flags.Workers))

	if flags.Output == "text" {
		return printAll(context.Background(), cli, urls)
	}
	results := classifyAll(context.Background(), service, urls, flags.Workers)
	return write(os.Stdout, flags.Output, results)
}

// printAll prints each URL in input order and fails if any of them failed
func printAll(ctx context.Context, cli *filter.CliFilter, urls []string) error {
	failed := 0
	for _, u := range urls {
		if _, err := cli.ProcessURL(ctx, u); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs could not be classified", failed, len(urls))
	}
	return nil
}

// readURLs takes URLs from -file, else positional args, else stdin
func readURLs(flags *di.CLIFlags) ([]string, error) {
	if flags.InputFile == "" && len(flags.Args) > 0 {
		return flags.Args, nil
	}

	var r io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
	}

	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URLs: %w", err)
	}
	return urls, nil
}

// classifyAll classifies concurrently and keeps input order
func classifyAll(ctx context.Context, service *core.URLService, urls []string, workers int) []result {
	results := make([]result, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			results[i].URL = u
			verdict, err := service.Analyze(ctx, u)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Verdict = *verdict
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func write(w io.Writer, format string, results []result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(results)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
