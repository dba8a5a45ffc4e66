package authcore

import "context"

type clientIPContextKey struct{}
type actorContextKey struct{}

// Actor identifies the authenticated principal performing an operation,
// recorded on audit entries. Unauthenticated flows leave it empty.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// WithClientIP attaches the caller's IP address to ctx. The Engine records
// it on audit entries.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithActor attaches the acting principal to ctx for audit attribution.
// Admin-side operations such as instructor provisioning should always
// carry an actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func actorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}

	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
