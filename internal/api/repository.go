package api

import (
	"context"
	"errors"
	"net/url"

	"github.com/gobeyondidentity/puretodo/pkg/auth"
	"github.com/gobeyondidentity/puretodo/pkg/store"
)

// errUnsupported is returned by operations a repository does not offer.
var errUnsupported = errors.New("operation not supported")

// Call carries everything a repository operation needs about one request.
type Call struct {
	// Auth is the caller's token resolution. Auth.User is nil unless the
	// token resolved to a stored user.
	Auth auth.Resolution

	// ID addresses the target row or collection.
	ID Identifier

	// Where holds the where[field]=value query criteria.
	Where url.Values

	// Body is the raw request body.
	Body []byte

	IP        string
	RequestID string
}

// Caller returns the authenticated user, or nil.
func (c Call) Caller() *store.User {
	return c.Auth.User
}

// callerID returns the authenticated user's id, or 0.
func (c Call) callerID() int64 {
	if c.Auth.User == nil {
		return 0
	}
	return c.Auth.User.ID
}

// Repository is the contract every entity collection satisfies. Results
// are JSON-serializable views; errors are store sentinels or errUnsupported.
type Repository interface {
	// AuthorizationRequired reports whether callers must hold a valid token.
	AuthorizationRequired(ctx context.Context) bool

	// AdminRequired reports whether callers must be admins.
	AdminRequired(ctx context.Context) bool

	Index(ctx context.Context, c Call) (any, error)
	Read(ctx context.Context, c Call) (any, error)
	Create(ctx context.Context, c Call) (any, error)
	Update(ctx context.Context, c Call) (any, error)
	Delete(ctx context.Context, c Call) error
}

// baseRepository supplies closed defaults. Embedders override what they
// support.
type baseRepository struct{}

func (baseRepository) AuthorizationRequired(context.Context) bool { return true }
func (baseRepository) AdminRequired(context.Context) bool         { return false }

func (baseRepository) Index(context.Context, Call) (any, error) { return nil, store.ErrNotFound }
func (baseRepository) Read(context.Context, Call) (any, error)  { return nil, store.ErrNotFound }

func (baseRepository) Create(context.Context, Call) (any, error) { return nil, errUnsupported }
func (baseRepository) Update(context.Context, Call) (any, error) { return nil, errUnsupported }
func (baseRepository) Delete(context.Context, Call) error        { return errUnsupported }

// plainID returns the row id of a PlainID. Any other identifier addresses
// nothing in a flat collection.
func plainID(id Identifier) (int64, error) {
	p, ok := id.(PlainID)
	if !ok {
		return 0, store.ErrNotFound
	}
	return p.ID, nil
}
