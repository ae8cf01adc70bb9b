// Package main is the entry point for the weft synchronizer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/link"
	"github.com/weftlabs/weft/internal/link/registry"
	"github.com/weftlabs/weft/internal/logs"
	"github.com/weftlabs/weft/internal/script"
	"github.com/weftlabs/weft/internal/sync"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() {
	fmt.Fprintf(os.Stderr, "weft - keep linked document forms in sync\n\n")
	fmt.Fprintf(os.Stderr, "Usage: weft [options] <command> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  clone <file>        Regenerate the linked counterpart of a file once\n")
	fmt.Fprintf(os.Stderr, "  watch <file...>     Watch files and keep their counterparts in sync\n")
	fmt.Fprintf(os.Stderr, "  links               List registered link types\n")
	fmt.Fprintf(os.Stderr, "  version             Show version information\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  -config <path>      Configuration file (default: weft.toml if present)\n")
	fmt.Fprintf(os.Stderr, "  -log-level <level>  Log level: debug, info, warn, error\n")
}

func run(args []string) int {
	fs := flag.NewFlagSet("weft", flag.ContinueOnError)
	fs.Usage = usage
	configPath := fs.String("config", "", "path to configuration file")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() == 0 {
		usage()
		return 2
	}
	command := fs.Arg(0)
	rest := fs.Args()[1:]

	if command == "version" {
		fmt.Printf("weft %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, closer, err := logs.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}

	reg, cleanup, err := buildRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	switch command {
	case "clone":
		return runClone(reg, cfg, rest)
	case "watch":
		return runWatch(log, reg, cfg, rest)
	case "links":
		return runLinks(reg)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		usage()
		return 2
	}
}

// loadConfig reads the explicit config path, or weft.toml from the
// working directory when present.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Load("weft.toml")
}

// buildRegistry combines the built-in link types with the ones the
// configuration declares. Rule scripts are loaded once and shared by
// every configuration the entry produces.
func buildRegistry(cfg config.Config) (*registry.Registry, func(), error) {
	reg := registry.Default()

	var loaded []*script.Rules
	cleanup := func() {
		for _, r := range loaded {
			r.Close()
		}
	}

	for _, spec := range cfg.Links {
		spec := spec

		var rules *script.Rules
		if spec.RuleScript != "" {
			r, err := script.LoadFile(spec.RuleScript)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			loaded = append(loaded, r)
			rules = r
		}

		reg.Override(spec.Name, spec.FromExt, spec.ToExt, func(this, that string) *link.Configuration {
			c := spec.Configuration(this, that)
			if rules != nil {
				c.Rules = append(c.Rules, rules.ForwardRule())
			}
			return c
		})
	}
	return reg, cleanup, nil
}

func runClone(reg *registry.Registry, cfg config.Config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: clone takes exactly one file\n")
		return 2
	}

	s, err := newSyncer(reg, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	that, err := s.CloneOnce(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(that)
	return 0
}

func runWatch(log *slog.Logger, reg *registry.Registry, cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: watch needs at least one file\n")
		return 2
	}

	s, err := newSyncer(reg, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	for _, path := range args {
		if err := s.Add(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("watching", "files", len(args))
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runLinks(reg *registry.Registry) int {
	for _, e := range reg.Entries() {
		fmt.Printf("%-14s %s -> %s\n", e.Name, e.FromExt, e.ToExt)
	}
	return 0
}

func newSyncer(reg *registry.Registry, cfg config.Config) (*sync.Syncer, error) {
	opts := []sync.Option{sync.WithDebounce(cfg.DebounceDelay())}
	if cfg.StatePath != "" {
		opts = append(opts, sync.WithState(sync.OpenState(cfg.StatePath)))
	} else {
		opts = append(opts, sync.WithState(sync.OpenState(defaultStatePath())))
	}
	return sync.New(reg, opts...)
}

// defaultStatePath places the sync state under the user cache dir,
// falling back to the working directory.
func defaultStatePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		path := filepath.Join(dir, "weft")
		if err := os.MkdirAll(path, 0o755); err == nil {
			return filepath.Join(path, "state.json")
		}
	}
	return ".weft-state.json"
}
