// Package commands provides the command interface and implementations.
package commands

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log/slog"

	"todoctl/internal/config"
	"todoctl/internal/service"
	"todoctl/internal/session"
)

// Access tells the dispatcher what a command needs from the session.
type Access int

const (
	// Public commands run without a session (help, version).
	Public Access = iota

	// Optional commands get a restored session but run either way (logout).
	Optional

	// Guest commands are meant for logged-out users (login, register).
	Guest

	// Protected commands run only for an authenticated session.
	Protected
)

// Session is the part of session.Store commands use.
type Session interface {
	State() session.State
	Restore() session.State
	Login(token string, user *service.User) error
	Register(token string, user *service.User) error
	Logout(ctx context.Context)
}

// Deps are the collaborators handed to a command.
// They are zero for Public commands.
type Deps struct {
	Session Session
	Tasks   service.Service
	Auth    service.Authenticator
	Log     *slog.Logger

	// In is where prompts read answers from.
	In *bufio.Reader
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Access reports the session requirement.
	// The dispatcher refuses Protected commands for logged-out users.
	Access() Access

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, deps Deps, args []string, out, errOut io.Writer) int
}
