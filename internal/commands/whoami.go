package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"

	"todoctl/internal/config"
	"todoctl/internal/exitcode"
	"todoctl/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the logged-in user" }
func (c *WhoamiCmd) Usage() string     { return "todoctl whoami [common flags]" }
func (c *WhoamiCmd) Access() Access    { return Protected }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, deps Deps, args []string, out, errOut io.Writer) int {
	st := deps.Session.State()
	output.FormatUser(out, st.User)

	// The API's tokens are usually JWTs. Their claims are shown as-is; the
	// signature can only be checked by the API.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(st.Token, claims); err != nil {
		deps.Log.Debug("token is not a jwt", "error", err)
		return exitcode.Success
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		fmt.Fprintf(out, "email: %s\n", email)
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		fmt.Fprintf(out, "subject: %s\n", sub)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		fmt.Fprintf(out, "expires: %s\n", exp.UTC().Format(output.TimeLayout))
	}
	return exitcode.Success
}
