package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/service"
	"todoctl/internal/views"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	name         string
	email        string
	password     string
	confirmation string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return nil }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "todoctl register [common flags] [--name <name>] [--email <email>] [--password <password>] [--password-confirmation <password>]"
}
func (c *RegisterCmd) Access() Access { return Guest }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.confirmation, "password-confirmation", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, deps Deps, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if deps.Session.State().Authenticated {
		fmt.Fprintln(errOut, "error: already logged in (run: todoctl logout)")
		return exitcode.UserError
	}

	var in service.RegisterInput
	var err error
	fields := []struct {
		label string
		flag  string
		dst   *string
	}{
		{"Name", c.name, &in.Name},
		{"Email", c.email, &in.Email},
		{"Password", c.password, &in.Password},
		{"Confirm password", c.confirmation, &in.PasswordConfirmation},
	}
	for _, f := range fields {
		if *f.dst, err = ask(deps.In, errOut, f.label, f.flag); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	user, err := views.NewRegisterForm(deps.Auth, deps.Session).Submit(ctx, in)
	if err != nil {
		return fail(errOut, err)
	}
	deps.Log.Debug("registered", "email", user.Email)

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
