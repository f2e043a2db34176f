package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/guard"
	"todoctl/internal/logger"
)

// Factory builds the collaborators for a non-public command.
// The returned func releases them and is always non-nil on success.
type Factory func(ctx context.Context, cfg *config.Config, log *slog.Logger) (commands.Deps, func(), error)

// ErrNoBackend is returned when the dispatcher has no Factory.
var ErrNoBackend = errors.New("no backend configured")

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  Factory
	in       *bufio.Reader
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithInput sets where prompts and shell lines are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(d *Dispatcher) {
		d.in = bufio.NewReader(r)
	}
}

// NewDispatcher creates a new dispatcher with the given registry and factory.
func NewDispatcher(registry *commands.Registry, factory Factory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.in == nil {
		d.in = bufio.NewReader(os.Stdin)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	if strings.EqualFold(cmdName, shellCommand) {
		return d.runShell(ctx, args[1:], out, errOut)
	}

	return d.dispatch(ctx, cmdName, args[1:], nil, out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, sh *shell, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, sh, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	apiURL    string
	quiet     bool
	debug     bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configDir, "config", "", "")
	fs.StringVar(&c.apiURL, "api-url", "", "")
	fs.BoolVar(&c.quiet, "quiet", false, "")
	fs.BoolVar(&c.debug, "debug", false, "")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, sh *shell, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	common.register(fs)

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	positionalArgs, ok := parseFlags(fs, args, errOut)
	if !ok {
		return exitcode.UserError
	}

	var (
		cfg *config.Config
		err error
	)
	if sh != nil {
		cfg, err = sh.lineConfig(common)
	} else {
		cfg, err = loadConfig(common)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	if cmd.Access() == commands.Public {
		return cmd.Run(ctx, cfg, commands.Deps{}, positionalArgs, out, errOut)
	}

	var deps commands.Deps
	if sh != nil {
		deps = sh.deps
	} else {
		var release func()
		deps, release, err = d.build(ctx, cfg, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return commands.ExitCode(err)
		}
		defer release()
	}

	if cmd.Access() == commands.Protected {
		g := guard.New(func() {
			fmt.Fprintf(errOut, "error: not logged in (run: %s login)\n", config.AppName)
		})
		outcome := g.Check(deps.Session.State())
		if outcome == guard.Wait {
			outcome = g.Check(deps.Session.Restore())
		}
		if outcome != guard.Render {
			return exitcode.AuthError
		}
	} else if deps.Session.State().Loading {
		deps.Session.Restore()
	}

	return cmd.Run(ctx, cfg, deps, positionalArgs, out, errOut)
}

// build runs the factory with a logger writing to errOut.
func (d *Dispatcher) build(ctx context.Context, cfg *config.Config, errOut io.Writer) (commands.Deps, func(), error) {
	if d.factory == nil {
		return commands.Deps{}, nil, ErrNoBackend
	}
	log := logger.New(errOut, cfg.EffectiveLogLevel())
	deps, release, err := d.factory(ctx, cfg, log)
	if err != nil {
		return commands.Deps{}, nil, err
	}
	if release == nil {
		release = func() {}
	}
	if deps.Log == nil {
		deps.Log = log
	}
	deps.In = d.in
	return deps, release, nil
}

// parseFlags parses args and reports flag errors on errOut.
func parseFlags(fs *flag.FlagSet, args []string, errOut io.Writer) ([]string, bool) {
	if err := fs.Parse(args); err != nil {
		// Handle specific error types
		errStr := err.Error()

		// Check for missing flag value
		if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
			// Extract flag name
			parts := strings.Split(errStr, ":")
			if len(parts) > 1 {
				flagPart := strings.TrimSpace(parts[1])
				fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
				return nil, false
			}
		}

		// Check for unknown flag
		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return nil, false
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return nil, false
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return nil, false
	}
	return positionalArgs, true
}

// loadConfig reads the config and applies the common flag overrides.
func loadConfig(common commonFlags) (*config.Config, error) {
	cfg, err := config.Load(common.configDir)
	if err != nil {
		return nil, err
	}
	if common.apiURL != "" {
		cfg.APIURL = strings.TrimRight(common.apiURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	return cfg, nil
}
