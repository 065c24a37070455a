package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gobeyondidentity/puretodo/pkg/store"
	"github.com/gobeyondidentity/puretodo/pkg/token"
)

// Status is the outcome of resolving a bearer token.
type Status int

const (
	StatusMissing Status = iota
	StatusInvalid
	StatusExpired
	StatusNoSubject
	StatusNotFound
	StatusOk
)

// String returns the machine-readable status name reported to clients.
func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "Missing"
	case StatusInvalid:
		return "Invalid"
	case StatusExpired:
		return "Expired"
	case StatusNoSubject:
		return "NoSubject"
	case StatusNotFound:
		return "NotFound"
	case StatusOk:
		return "Ok"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON and logs.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Resolution is the result of authenticating one request.
type Resolution struct {
	Status Status
	User   *store.User // set only when Status is StatusOk
}

// Authenticated reports whether the request carries a valid, current token.
func (r Resolution) Authenticated() bool {
	return r.Status == StatusOk && r.User != nil
}

// TokenDecoder verifies and decodes raw tokens. *token.Issuer implements it.
type TokenDecoder interface {
	Decode(raw string) token.Decoded
}

// UserFinder looks up the user currently holding a raw token.
// *store.Store implements it.
type UserFinder interface {
	FindUserByToken(ctx context.Context, raw string) (*store.User, error)
}

// Authenticator turns request headers into a Resolution.
type Authenticator struct {
	decoder TokenDecoder
	users   UserFinder
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(decoder TokenDecoder, users UserFinder) *Authenticator {
	return &Authenticator{decoder: decoder, users: users}
}

const bearerPrefix = "Bearer "

// BearerToken extracts the token from an Authorization header value. The
// prefix match is case-sensitive.
func BearerToken(h http.Header) string {
	v := h.Get("Authorization")
	if !strings.HasPrefix(v, bearerPrefix) {
		return ""
	}
	return v[len(bearerPrefix):]
}

// Resolve authenticates the request headers. An error is returned only when
// the user lookup itself fails; every token problem is reported through
// the Resolution status.
func (a *Authenticator) Resolve(ctx context.Context, h http.Header) (Resolution, error) {
	raw := BearerToken(h)
	if raw == "" {
		return Resolution{Status: StatusMissing}, nil
	}

	d := a.decoder.Decode(raw)
	switch {
	case !d.Decodable:
		return Resolution{Status: StatusMissing}, nil
	case !d.SignatureValid:
		return Resolution{Status: StatusInvalid}, nil
	case d.Expired:
		return Resolution{Status: StatusExpired}, nil
	case d.Payload.Sub == "":
		return Resolution{Status: StatusNoSubject}, nil
	}

	u, err := a.users.FindUserByToken(ctx, raw)
	if errors.Is(err, store.ErrNotFound) {
		return Resolution{Status: StatusNotFound}, nil
	}
	if err != nil {
		return Resolution{Status: StatusNotFound}, fmt.Errorf("failed to look up token owner: %w", err)
	}
	return Resolution{Status: StatusOk, User: u}, nil
}
