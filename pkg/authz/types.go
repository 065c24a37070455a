package authz

import (
	"strconv"
	"time"
)

// PrincipalType distinguishes authenticated users from anonymous callers.
type PrincipalType string

const (
	PrincipalUser      PrincipalType = "Todo::User"
	PrincipalAnonymous PrincipalType = "Todo::Anonymous"
)

// Principal represents the caller.
type Principal struct {
	UID           string
	Type          PrincipalType
	Authenticated bool
	Admin         bool
}

// Anonymous is the principal for requests without a valid token.
var Anonymous = Principal{UID: "anon", Type: PrincipalAnonymous}

// UserPrincipal returns the principal for an authenticated user.
func UserPrincipal(id int64, admin bool) Principal {
	return Principal{
		UID:           strconv.FormatInt(id, 10),
		Type:          PrincipalUser,
		Authenticated: true,
		Admin:         admin,
	}
}

// Resource describes the entity collection being accessed and its gates.
type Resource struct {
	Entity                string // entity key from the URL, e.g. "lists"
	AuthorizationRequired bool
	AdminRequired         bool
}

// ActionAccess is the only action; per-verb rules live in the repositories.
const ActionAccess = "access"

// Request contains all information needed for an authorization decision.
type Request struct {
	Principal Principal
	Resource  Resource
}

// DenyReason classifies a denial for the response message.
type DenyReason string

const (
	DenyNone                  DenyReason = ""
	DenyAuthorizationRequired DenyReason = "authorization_required"
	DenyAdminRequired         DenyReason = "admin_required"
)

// Decision contains the result of an authorization check.
type Decision struct {
	Allowed    bool
	DenyReason DenyReason
	Reason     string // human-readable, safe to show to the caller
	PolicyID   string // policy that permitted the request, for logs
	Duration   time.Duration
}
