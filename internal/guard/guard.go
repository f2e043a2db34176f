// Package guard decides whether protected commands may run.
package guard

import (
	"sync"

	"todoctl/internal/session"
)

// Outcome is the result of a guard decision.
type Outcome int

const (
	// Wait means the session is still loading.
	Wait Outcome = iota
	// Render means the protected content may run.
	Render
	// Redirect means the user must log in first.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decide maps a session state to an outcome. It never redirects while loading.
func Decide(st session.State) Outcome {
	switch {
	case st.Loading:
		return Wait
	case st.Authenticated:
		return Render
	default:
		return Redirect
	}
}

// Guard wraps Decide with a redirect callback that fires at most once.
type Guard struct {
	once       sync.Once
	onRedirect func()
}

// New creates a Guard. onRedirect may be nil.
func New(onRedirect func()) *Guard {
	return &Guard{onRedirect: onRedirect}
}

// Check decides for st and fires the redirect callback on the first Redirect.
func (g *Guard) Check(st session.State) Outcome {
	out := Decide(st)
	if out == Redirect && g.onRedirect != nil {
		g.once.Do(g.onRedirect)
	}
	return out
}
