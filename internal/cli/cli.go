package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-intent-router/internal/assistant"
	"github.com/amirbrooks/tasker-intent-router/internal/config"
	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
	"github.com/amirbrooks/tasker-intent-router/internal/suggest"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitInternal = 10
	ExitConfig   = 11
)

// newGateway is replaced in tests.
var newGateway = gateway.New

type GlobalFlags struct {
	Config  string
	Root    string
	JSON    bool
	Verbose bool
}

// exitError carries an explicit exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, a ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, a...)}
}

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr, os.Getenv)
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	gf := &GlobalFlags{}
	root := newRootCmd(gf, getenv)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(stderr, "tasker:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, config.ErrInvalid), errors.Is(err, gateway.ErrMissingCredentials):
		return ExitConfig
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, store.ErrInvalid):
		return ExitUsage
	case strings.HasPrefix(err.Error(), "unknown command"), strings.HasPrefix(err.Error(), "unknown flag"):
		return ExitUsage
	default:
		return ExitInternal
	}
}

func newRootCmd(gf *GlobalFlags, getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:           "tasker",
		Short:         "Free-text command router for ideas, projects and tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: ExitUsage, err: err}
	})
	pf := root.PersistentFlags()
	pf.StringVar(&gf.Config, "config", "", "Config file (default: <root>/config.yaml)")
	pf.StringVar(&gf.Root, "root", "", "Store root (default: ~/.tasker or TASKER_ROOT)")
	pf.BoolVar(&gf.JSON, "json", false, "Print JSON instead of text")
	pf.BoolVar(&gf.Verbose, "verbose", false, "Debug logging")

	env := &appEnv{flags: gf, getenv: getenv}
	root.AddCommand(
		newServeCmd(env),
		newSayCmd(env),
		newDataCmd(env),
		newSuggestCmd(env),
		newCategorizeCmd(env),
		newConfigCmd(env),
		newExportCmd(env),
	)
	return root
}

// appEnv resolves configuration and opens dependencies for one invocation.
type appEnv struct {
	flags  *GlobalFlags
	getenv func(string) string
}

type app struct {
	cfg     config.Config
	path    string
	logger  *log.Logger
	store   *store.Store
	gateway gateway.Completer
}

// configPath picks --config, else config.yaml under --root or TASKER_ROOT.
func (e *appEnv) configPath() string {
	if p := strings.TrimSpace(e.flags.Config); p != "" {
		return p
	}
	root := strings.TrimSpace(e.flags.Root)
	if root == "" {
		root = strings.TrimSpace(e.getenv("TASKER_ROOT"))
	}
	if root == "" {
		root = config.DefaultRoot()
	}
	return config.DefaultPath(root)
}

func (e *appEnv) loadConfig() (config.Config, string, error) {
	path := e.configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	cfg.ApplyEnv(e.getenv)
	if r := strings.TrimSpace(e.flags.Root); r != "" {
		cfg.Root = r
	}
	if e.flags.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, path, cfg.Validate()
}

// open builds the app. The gateway is only constructed when needed; a missing
// key is then a configuration error.
func (e *appEnv) open(ctx context.Context, withGateway bool) (*app, error) {
	cfg, path, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger()
	backend, err := store.OpenBackend(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &app{cfg: cfg, path: path, logger: logger, store: store.New(backend, logger)}
	if withGateway {
		g, err := newGateway(ctx, cfg.GatewayConfig(), logger)
		if err != nil {
			_ = a.store.Close()
			return nil, err
		}
		a.gateway = g
	}
	logger.WithFields(log.Fields{"backend": cfg.Store.Backend, "root": cfg.Root}).Debug("opened")
	return a, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("close store")
	}
}

func (a *app) assistant() *assistant.Assistant {
	return assistant.New(a.cfg.Variant(), a.gateway, a.store, a.logger)
}

func (a *app) suggester() *suggest.Suggester {
	return suggest.New(a.gateway, a.logger)
}
