package api

import (
	"context"

	"github.com/gobeyondidentity/puretodo/pkg/audit"
	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// usersRepository manages accounts. Once a user exists it is admin-only;
// before that it is open so the first account can be created.
type usersRepository struct {
	store  *store.Store
	sign   store.TokenSigner
	events eventSink
}

// setupMode reports whether no user exists yet. Lookup failures count as
// not in setup mode so the gates stay closed.
func (r usersRepository) setupMode(ctx context.Context) bool {
	n, err := r.store.CountUsers(ctx)
	return err == nil && n == 0
}

func (r usersRepository) AuthorizationRequired(ctx context.Context) bool { return !r.setupMode(ctx) }
func (r usersRepository) AdminRequired(ctx context.Context) bool         { return !r.setupMode(ctx) }

func (r usersRepository) Index(ctx context.Context, c Call) (any, error) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u, c.Caller()))
	}
	return views, nil
}

func (r usersRepository) Read(ctx context.Context, c Call) (any, error) {
	id, err := plainID(c.ID)
	if err != nil {
		return nil, err
	}
	u, err := r.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserView(u, c.Caller()), nil
}

func (r usersRepository) Create(ctx context.Context, c Call) (any, error) {
	if _, err := plainID(c.ID); err != nil {
		return nil, err
	}
	var in userCreateRequest
	if err := decodeBody(c.Body, "users.create", &in); err != nil {
		return nil, err
	}

	nu := store.NewUser{
		Username: in.Username,
		Name:     in.Name,
		Admin:    in.Admin,
	}
	// Without a caller the gates only let the request through in setup mode.
	// CreateFirstUser repeats that check inside its transaction, so a second
	// anonymous request racing the first one is refused.
	first := c.Caller() == nil
	var u *store.User
	var err error
	if first {
		u, err = r.store.CreateFirstUser(ctx, nu, r.sign)
	} else {
		u, err = r.store.CreateUser(ctx, c.callerID(), nu, r.sign)
	}
	if err != nil {
		return nil, err
	}

	actor := u.Username
	if caller := c.Caller(); caller != nil {
		actor = caller.Username
	}
	if first {
		r.events.Record(audit.NewSetupComplete(u.Username, c.IP, c.RequestID))
	}
	r.events.Record(audit.NewTokenIssued(actor, u.Username, c.RequestID))

	// In setup mode there is no caller yet; the new admin sees its own token.
	viewer := c.Caller()
	if viewer == nil {
		viewer = u
	}
	return toUserView(u, viewer), nil
}

func (r usersRepository) Update(ctx context.Context, c Call) (any, error) {
	id, err := plainID(c.ID)
	if err != nil || id == 0 {
		return nil, store.ErrNotFound
	}
	var in userUpdateRequest
	if err := decodeBody(c.Body, "users.update", &in); err != nil {
		return nil, err
	}

	before, err := r.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := r.store.UpdateUser(ctx, c.Caller(), id, store.UserPatch{
		Username:     in.Username,
		Name:         in.Name,
		Admin:        in.Admin,
		Disabled:     in.Disabled,
		RefreshToken: in.RefreshToken,
	}, r.sign)
	if err != nil {
		return nil, err
	}

	if u.Token != before.Token {
		r.events.Record(audit.NewTokenIssued(c.Caller().Username, u.Username, c.RequestID))
	}
	return toUserView(u, c.Caller()), nil
}

func (r usersRepository) Delete(ctx context.Context, c Call) error {
	id, err := plainID(c.ID)
	if err != nil || id == 0 {
		return store.ErrNotFound
	}
	return r.store.DeleteUser(ctx, c.Caller(), id)
}
