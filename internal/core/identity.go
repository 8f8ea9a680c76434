package core

import "context"

// Identity is the decoded claims of a verified credential token.
type Identity struct {
	AccountID string
	Email     string
	Role      Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
