package auth

import "context"

type contextKey struct{}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKey{}, username)
}

// UsernameFromContext returns ErrUnauthenticated when no user was attached.
func UsernameFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(contextKey{}).(string)
	if !ok || username == "" {
		return "", ErrUnauthenticated
	}
	return username, nil
}
