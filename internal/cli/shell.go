package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/exitcode"
)

const shellCommand = "shell"

// ErrUnterminatedQuote is returned by SplitLine for an unbalanced quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// shell is the state shared by every line of an interactive session.
// The session store lives as long as the shell, so a logout caused by
// one command is seen by the next.
type shell struct {
	cfg  *config.Config
	deps commands.Deps
}

// lineConfig applies a line's common flags on top of the shell config.
func (s *shell) lineConfig(common commonFlags) (*config.Config, error) {
	if common.configDir != "" || common.apiURL != "" {
		return nil, errors.New("--config and --api-url can only be given when starting the shell")
	}
	cfg := *s.cfg
	cfg.Quiet = cfg.Quiet || common.quiet
	cfg.Debug = cfg.Debug || common.debug
	return &cfg, nil
}

// runShell reads commands line by line until exit, quit or end of input.
// Returns the exit code of the last command.
func (d *Dispatcher) runShell(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(shellCommand, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var common commonFlags
	common.register(fs)

	positionalArgs, ok := parseFlags(fs, args, errOut)
	if !ok {
		return exitcode.UserError
	}
	if len(positionalArgs) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := loadConfig(common)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	deps, release, err := d.build(ctx, cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return commands.ExitCode(err)
	}
	defer release()

	st := deps.Session.Restore()
	deps.Log.Debug("shell started", "phase", st.Phase().String())

	sh := &shell{cfg: cfg, deps: deps}
	code := exitcode.Success
	for ctx.Err() == nil {
		if !cfg.Quiet {
			fmt.Fprintf(errOut, "%s> ", config.AppName)
		}

		line, readErr := d.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			words, err := SplitLine(line)
			switch {
			case err != nil:
				fmt.Fprintf(errOut, "error: %s\n", err)
				code = exitcode.UserError
			case words[0] == "exit" || words[0] == "quit":
				return code
			case strings.EqualFold(words[0], shellCommand):
				fmt.Fprintln(errOut, "error: already in shell")
				code = exitcode.UserError
			default:
				code = d.dispatch(ctx, words[0], words[1:], sh, out, errOut)
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				fmt.Fprintf(errOut, "error: read input: %s\n", readErr)
				return exitcode.UserError
			}
			if !cfg.Quiet {
				fmt.Fprintln(errOut)
			}
			return code
		}
	}
	return code
}

// SplitLine splits a shell line into words.
// Single and double quotes group words; a backslash escapes the next
// character outside single quotes.
func SplitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range strings.TrimRight(line, "\r\n") {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
