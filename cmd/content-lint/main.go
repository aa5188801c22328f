// Command content-lint validates a content catalog and reports every issue
// grouped by content id and field.
//
// Exit codes: 0 clean, 1 failing issues, 2 fatal (bad config, unreadable
// catalog, duplicate id).
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwalitptl/edu-content/internal/catalog"
	"github.com/jwalitptl/edu-content/internal/config"
	"github.com/jwalitptl/edu-content/internal/lint"
	"github.com/jwalitptl/edu-content/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("content-lint", flag.ContinueOnError)
	var (
		strict       = flags.Bool("strict", false, "treat warnings as failures")
		dir          = flags.String("dir", "", "catalog directory (default: embedded seed catalog)")
		format       = flags.String("format", lint.FormatText, "output format: text or json")
		configPath   = flags.String("config", "", "path to config.yml")
		strictRefs   = flags.Bool("strict-refs", false, "report unresolved cross-references as errors")
		translations = flags.Bool("require-translations", false, "warn on entries without a Spanish name")
	)
	if err := flags.Parse(args); err != nil {
		return lint.ExitFatal
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return lint.ExitFatal
	}

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Output: os.Stderr,
		JSON:   cfg.Log.JSON,
	})

	// Flags given on the command line win over the config file.
	opts := lint.Options{
		Strict:      *strict,
		Format:      *format,
		Concurrency: cfg.Catalog.Concurrency,
		Logger:      log,
	}
	opts.Validation.StrictReferences = cfg.Validation.StrictReferences
	opts.Validation.RequireTranslations = cfg.Validation.RequireTranslations
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "strict-refs":
			opts.Validation.StrictReferences = *strictRefs
		case "require-translations":
			opts.Validation.RequireTranslations = *translations
		}
	})

	root := *dir
	if root == "" {
		root = cfg.Catalog.Dir
	}
	var fsys fs.FS
	if root == "" {
		fsys = catalog.FS()
	} else {
		info, err := os.Stat(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
			return lint.ExitFatal
		}
		if !info.IsDir() {
			fmt.Fprintf(os.Stderr, "catalog: %s is not a directory\n", root)
			return lint.ExitFatal
		}
		fsys = os.DirFS(root)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return lint.Run(ctx, fsys, opts, os.Stdout, os.Stderr)
}
