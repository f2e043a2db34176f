package guard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"todoctl/internal/guard"
	"todoctl/internal/session"
	"todoctl/internal/testutil"
)

type noHeaders struct{}

func (noHeaders) SetAuthToken(string) {}
func (noHeaders) ClearAuthToken()     {}

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		want  guard.Outcome
	}{
		{"loading", session.State{Loading: true}, guard.Wait},
		{"loading wins over authenticated", session.State{Loading: true, Authenticated: true}, guard.Wait},
		{"authenticated", session.State{Authenticated: true, Token: "t"}, guard.Render},
		{"guest", session.State{}, guard.Redirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Decide(tt.state))
		})
	}
}

func TestCheck_RedirectsOnce(t *testing.T) {
	redirects := 0
	g := guard.New(func() { redirects++ })

	assert.Equal(t, guard.Redirect, g.Check(session.State{}))
	assert.Equal(t, guard.Redirect, g.Check(session.State{}))
	assert.Equal(t, 1, redirects)
}

func TestCheck_NoRedirectWhileLoading(t *testing.T) {
	redirects := 0
	g := guard.New(func() { redirects++ })

	assert.Equal(t, guard.Wait, g.Check(session.State{Loading: true}))
	assert.Equal(t, guard.Render, g.Check(session.State{Authenticated: true}))
	assert.Equal(t, 0, redirects)
}

func TestCheck_NilCallback(t *testing.T) {
	g := guard.New(nil)
	assert.Equal(t, guard.Redirect, g.Check(session.State{}))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "wait", guard.Wait.String())
	assert.Equal(t, "render", guard.Render.String())
	assert.Equal(t, "redirect", guard.Redirect.String())
}

func TestGuard_RedirectsAfterSessionExpires(t *testing.T) {
	store := testutil.NewMemoryStore("valid-token")
	s := session.New(store, noHeaders{}, nil)
	g := guard.New(nil)

	assert.Equal(t, guard.Wait, g.Check(s.State()))
	s.Restore()
	assert.Equal(t, guard.Render, g.Check(s.State()))

	s.Logout(context.Background())
	assert.Equal(t, guard.Redirect, g.Check(s.State()))
}
