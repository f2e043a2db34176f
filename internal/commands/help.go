package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todoctl help" }
func (c *HelpCmd) Access() Access    { return Public }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, deps Deps, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todoctl                                          List tasks
  todoctl list [common flags] [--open]             List tasks, open ones first
  todoctl show [common flags] <id>
  todoctl add [common flags] [-d <description>] <title...>
  todoctl create [common flags] [-d <description>] <title...>
  todoctl edit [common flags] [--title <title>] [--description <text>] [--done|--undone] <id>
  todoctl toggle [common flags] <id>
  todoctl rm [common flags] <id>
  todoctl delete [common flags] <id>
  todoctl login [common flags] [--email <email>] [--password <password>]
  todoctl register [common flags] [--name <name>] [--email <email>]
  todoctl logout [common flags]
  todoctl whoami [common flags]
  todoctl shell [common flags]                     Run commands interactively
  todoctl help
  todoctl version

Common flags:
  --config <dir>    Override config directory
  --api-url <url>   Override the task API base URL
  --quiet           Suppress informational output
  --debug           Print debug logs to stderr

Environment:
  TODOCTL_API_URL, TODOCTL_TIMEOUT, TODOCTL_LOG_LEVEL
`
