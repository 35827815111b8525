package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datops/internal/charset"
	"github.com/JonMunkholm/datops/internal/config"
	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/logging"
	"github.com/JonMunkholm/datops/internal/source"
	"github.com/JonMunkholm/datops/internal/tabular"
)

// app holds what every subcommand shares.
type app struct {
	stdout, stderr io.Writer

	cfg *config.Config
	svc *core.Service

	// set once flags and arguments were accepted; errors after this point
	// are operation failures, not usage errors
	started bool

	// persistent flags
	outDir    string
	format    string
	encoding  string
	overwrite bool
	asJSON    bool
	logLevel  string
	envFile   string

	closers []func()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "datops",
		Short:         "Convert, compare, merge and filter DAT files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.started = true
			return a.setup(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := root.PersistentFlags()
	f.StringVarP(&a.outDir, "out", "o", "", "output directory (default: next to the input)")
	f.StringVarP(&a.format, "format", "f", "", "output format: "+strings.Join(tabular.Names(), ", "))
	f.StringVarP(&a.encoding, "encoding", "e", "", "force the input encoding: "+strings.Join(charset.Names(), ", "))
	f.BoolVar(&a.overwrite, "overwrite", false, "replace existing output files")
	f.BoolVar(&a.asJSON, "json", false, "print results as JSON")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		a.convertCommand(),
		a.compareCommand(),
		a.replaceHeaderCommand(),
		a.mergeCommand(),
		a.deleteCommand(),
		a.selectCommand(),
		a.inspectCommand(),
		a.historyCommand(),
		a.serveCommand(),
		a.menuCommand(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the service.
func (a *app) setup(cmd *cobra.Command) error {
	// Overload so the dotenv file wins over inherited variables
	if err := godotenv.Overload(a.envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = a.outDir
	}
	if flags.Changed("format") {
		if _, err := tabular.Lookup(a.format); err != nil {
			return usageError{err}
		}
		cfg.Output.Format = a.format
	}
	if flags.Changed("encoding") {
		if _, err := charset.Parse(a.encoding); err != nil {
			return usageError{err}
		}
		cfg.Encoding.Name = a.encoding
	}
	if flags.Changed("overwrite") {
		cfg.Output.Overwrite = a.overwrite
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}

	// stdout carries results; logs go to stderr
	logging.SetupTo(a.stderr, cfg.Logging.Level, cfg.Logging.Format)
	a.cfg = cfg

	slog.Debug("configuration loaded", "config", cfg.String())

	// serve wires its own history store
	if cmd.Name() == "serve" {
		return nil
	}

	history := core.HistoryStore(core.NopHistory{})
	if cfg.History.Enabled() {
		h, err := a.openHistory(cmd.Context())
		if err != nil {
			if cmd.Name() == "history" {
				return err
			}
			slog.Warn("run history disabled", "error", err)
		} else {
			history = h
		}
	}
	a.svc = a.newService(history, nil)
	return nil
}

func (a *app) newService(history core.HistoryStore, limiter *core.Limiter) *core.Service {
	sniffer := charset.NewSniffer(a.cfg.Encoding.SniffBytes)
	sniffer.Open = source.OpenRaw

	opts := []core.Option{
		core.WithDetector(sniffer),
		core.WithHistory(history),
		core.WithDefaultFormat(a.cfg.Output.Format),
	}
	if limiter != nil {
		opts = append(opts, core.WithLimiter(limiter))
	}
	return core.NewService(opts...)
}

// openHistory connects to the configured database and makes sure the run
// table exists. The pool is closed when the command ends.
func (a *app) openHistory(ctx context.Context) (*core.PgHistory, error) {
	pool, err := core.OpenPool(ctx, core.PoolConfig{
		URL:      a.cfg.History.URL,
		MaxConns: a.cfg.History.MaxConns,
		MinConns: a.cfg.History.MinConns,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	h := core.NewPgHistory(pool)
	if err := h.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// output leaves Format empty unless --format was given, so each operation
// falls back to its own default.
func (a *app) output() core.OutputOptions {
	return core.OutputOptions{
		Dir:       a.cfg.Output.Dir,
		Format:    a.format,
		Overwrite: a.cfg.Output.Overwrite,
	}
}

func (a *app) input() core.InputOptions {
	return core.InputOptions{Encoding: a.cfg.Encoding.Name}
}
