// Package main provides the fsparse binary: frame-semantic parsing of
// sentences by driving an external semantic parser and a Prolog inference
// engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/semlab/srlkit-go/config"
	"github.com/semlab/srlkit-go/lf"
	"github.com/semlab/srlkit-go/mcpserver"
	"github.com/semlab/srlkit-go/pipeline"
)

const (
	Version = "0.1.0"
	appName = "fsparse"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	kbPath     string
	kbFrameDir string
	kbFEDir    string
	kbTheory   string
	watchKB    bool
	logLevel   string
	verbose    bool

	frameMatching bool
	feMatching    bool
	matching      bool
	asJSON        bool
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "fsparse [sentence]",
		Short: "Frame-semantic parsing via external engines",
		Long: `Fsparse annotates sentences with FrameNet frames and frame elements.

A Boxer-style parser turns the sentence into a logical form, and a Prolog
engine matches the logical form against the rule base. By default the full
annotation is printed; the matching flags print raw solution terms instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), flags, args[0])
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.kbPath, "kb-path", "", "Rule base directory; --kb-fr and --kb-fe resolve relative to it")
	cmd.PersistentFlags().StringVar(&flags.kbFrameDir, "kb-fr", "", "Frame rule directory (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.kbFEDir, "kb-fe", "", "Frame element rule directory (overrides config)")
	cmd.PersistentFlags().StringVar(&flags.kbTheory, "kb-theory", "", "Theory directory (overrides config)")
	cmd.PersistentFlags().BoolVar(&flags.watchKB, "watch-kb", false, "Reload the rule base on file changes")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	cmd.Flags().BoolVar(&flags.frameMatching, "frame-matching", false, "Print frame_related solutions only")
	cmd.Flags().BoolVar(&flags.feMatching, "frame-element-matching", false, "Print frame_element solutions only")
	cmd.Flags().BoolVar(&flags.matching, "matching", false, "Print solutions for both predicates")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the annotation as JSON")

	cmd.AddCommand(mcpCmd(flags))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func mcpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pipeline as MCP tools on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context(), flags)
		},
	}
}

// loadPipeline builds the pipeline from the effective configuration.
func loadPipeline(ctx context.Context, flags *rootFlags) (*pipeline.Pipeline, *slog.Logger, error) {
	level := flags.logLevel
	if flags.verbose {
		level = "debug"
	}

	logger := newLogger(level)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		// Without a config file the rule base may still come entirely
		// from flags; an explicit --config failure is always fatal.
		if flags.configPath != "" || !overridesComplete(flags) {
			return nil, nil, err
		}

		cfg = config.Default()
	}

	if flags.kbFrameDir != "" {
		cfg.KB.FrameDir = resolveKBDir(flags.kbPath, flags.kbFrameDir)
	}

	if flags.kbFEDir != "" {
		cfg.KB.FEDir = resolveKBDir(flags.kbPath, flags.kbFEDir)
	}

	if flags.kbTheory != "" {
		cfg.KB.TheoryDir = resolveKBDir(flags.kbPath, flags.kbTheory)
	}

	if flags.watchKB {
		cfg.KB.Watch = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	p, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return p, logger, nil
}

// overridesComplete reports whether the flags alone satisfy the required
// rule base settings, so a missing config file is not fatal.
func overridesComplete(flags *rootFlags) bool {
	return flags.kbFrameDir != "" && flags.kbFEDir != ""
}

// resolveKBDir resolves a rule directory against --kb-path unless the
// directory is already absolute.
func resolveKBDir(base, dir string) string {
	if base == "" || filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(base, dir)
}

func runParse(ctx context.Context, flags *rootFlags, sentence string) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	p, _, err := loadPipeline(ctx, flags)
	if err != nil {
		return err
	}
	defer p.Close()

	switch {
	case flags.frameMatching:
		return printTerms(p.FrameMatching(ctx, sentence))
	case flags.feMatching:
		return printTerms(p.FrameElementMatching(ctx, sentence))
	case flags.matching:
		return printTerms(p.Matching(ctx, sentence))
	}

	sent, err := p.Annotate(ctx, sentence)
	if err != nil {
		return err
	}

	if flags.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(sent)
	}

	fmt.Println(sent)

	return nil
}

func runMCP(ctx context.Context, flags *rootFlags) error {
	ctx, cancel := signalContext(ctx)
	defer cancel()

	p, logger, err := loadPipeline(ctx, flags)
	if err != nil {
		return err
	}
	defer p.Close()

	return mcpserver.New(p, logger).Serve(ctx, os.Stdin, os.Stdout)
}

func printTerms(terms []*lf.Term, err error) error {
	if err != nil {
		return err
	}

	for _, term := range terms {
		fmt.Printf("%s.\n", term)
	}

	return nil
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelWarn

	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
