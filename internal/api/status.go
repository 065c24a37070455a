package api

import (
	"context"

	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// statusRepository reports how the caller's token resolved and whether the
// server is waiting for its first user. It is readable without a token.
type statusRepository struct {
	baseRepository
	store *store.Store
}

func (statusRepository) AuthorizationRequired(context.Context) bool { return false }

func (r statusRepository) Index(ctx context.Context, c Call) (any, error) {
	n, err := r.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	v := statusView{
		Authenticated: c.Auth.Authenticated(),
		JwtStatus:     c.Auth.Status.String(),
		SetupMode:     n == 0,
	}
	if u := c.Caller(); u != nil {
		uv := toUserView(u, u)
		v.User = &uv
	}
	return v, nil
}
