package roles

import (
	"context"
	"fmt"

	"github.com/munifin/munifin/internal/shared"
)

// Authorize reports whether a role covers the required module. Admin roles
// cover every module. Pure predicate, no side effects.
func Authorize(role Role, required Module) bool {
	return role.Module == required || role.Module == ModuleAdmin
}

// Require returns shared.ErrUnauthorized when the actor's role does not cover
// the required module. Every mutating service operation calls this before
// touching storage so a failed check cannot leave partial writes.
func Require(actor Actor, required Module) error {
	if Authorize(actor.Role, required) {
		return nil
	}
	return fmt.Errorf("%w: role %q cannot access %s", shared.ErrUnauthorized, actor.Role.Name, required)
}

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor resolved by the session middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
