package principal

import "context"

// Principal is the authenticated identity owning conversations. Login and
// logout flows live behind the identity provider; the chat core only ever
// sees the resolved principal.
type Principal struct {
	ID    string
	Email string
	Name  string
}

type contextKey struct{}

// WithPrincipal attaches the principal to the context. The auth
// middleware calls this once per request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal for the current request, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok && p.ID != ""
}
