package statemachine

import "github.com/felixgeelhaar/statekit"

// guardCanCommit blocks COMMIT when nothing remains to commit.
// Guards receive the context by value; the context is *Context.
func guardCanCommit(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	if ctx.CanCommit == nil {
		return true
	}
	return ctx.CanCommit()
}
