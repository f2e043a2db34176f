package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/views"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a string flag that remembers whether it was given,
// so --description "" can clear a description.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       optionalString
	description optionalString
	done        bool
	undone      bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "todoctl edit [common flags] [--title <title>] [--description <text>] [--done|--undone] <id>"
}
func (c *EditCmd) Access() Access { return Protected }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title = optionalString{}
	c.description = optionalString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.BoolVar(&c.done, "done", false, "")
	fs.BoolVar(&c.undone, "undone", false, "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, deps Deps, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if c.done && c.undone {
		fmt.Fprintln(errOut, "error: cannot use both --done and --undone")
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set && !c.done && !c.undone {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	form := views.NewEditForm(deps.Tasks, id)
	if err := form.Load(ctx); err != nil {
		return fail(errOut, err)
	}

	if c.title.set {
		form.Title = c.title.value
	}
	if c.description.set {
		form.Description = c.description.value
	}
	if c.done {
		form.Completed = true
	}
	if c.undone {
		form.Completed = false
	}

	if _, err := form.Submit(ctx); err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
