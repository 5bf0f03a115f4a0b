package di

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/harees/url-classifier/internal/adapters/filter"
	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/dataset"
	"github.com/harees/url-classifier/internal/factory"
	"github.com/harees/url-classifier/internal/logging"
	"github.com/harees/url-classifier/internal/utils"
)

// CLIFlags contains all command line flags for the url-check tool
type CLIFlags struct {
	// Data flags
	Dataset string
	Allow   string

	// Input flags
	InputFile string
	Output    string
	Workers   int

	// Logging flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Args holds the URLs given as positional arguments
	Args []string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	fs.StringVar(&flags.Dataset, "dataset", "", "Path to the reference dataset CSV (default from config, else configs/links.csv)")
	fs.StringVar(&flags.Allow, "allow", "", "Comma-separated list of allowlisted hosts")

	fs.StringVar(&flags.InputFile, "file", "", "File with one URL per line (use args or stdin if not specified)")
	fs.StringVar(&flags.Output, "output", "text", "Output format (text, json, yaml)")
	fs.IntVar(&flags.Workers, "workers", 8, "Number of URLs classified concurrently in json and yaml output")

	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flags.Args = fs.Args()

	switch flags.Output {
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", flags.Output)
	}
	if flags.Workers <= 0 {
		flags.Workers = 1
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		return createCLIConfig(flags, logger)
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register URL service with no cache
	if err := container.Provide(func(
		store *dataset.Store,
		allowlist core.Allowlist,
		logger *zap.Logger,
	) *core.URLService {
		return core.NewURLService(store, allowlist, nil, logger, false, 0)
	}); err != nil {
		return nil, err
	}

	// Register the text printer. url-check records no history.
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		service *core.URLService,
		textProcessor *utils.TextProcessor,
	) (*filter.CliFilter, error) {
		return factory.NewFilterFactory(cfg, logger, service, nil, textProcessor).CreateCliFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createCLIConfig loads the config file when one is given and lets flags
// override it
func createCLIConfig(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file", zap.String("file", loaded.GetViper().ConfigFileUsed()))
		cfg = loaded
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	v := cfg.GetViper()
	if flags.Dataset != "" {
		v.Set("dataset.path", flags.Dataset)
	}
	if flags.Allow != "" {
		hosts := strings.Split(flags.Allow, ",")
		for i, host := range hosts {
			hosts[i] = strings.TrimSpace(host)
		}
		v.Set("allowlist.hosts", hosts)
	}
	v.Set("cache.enabled", false)
	if flags.Verbose {
		v.Set("cli.verbose", true)
	}

	return cfg, nil
}
