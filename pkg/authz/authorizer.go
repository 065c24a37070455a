package authz

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/cedar-policy/cedar-go"
)

//go:embed policies.cedar
var policiesContent []byte

// Messages returned to clients for each denial.
const (
	MessageAuthorizationRequired = "This request requires authorization"
	MessageAdminRequired         = "This request requires admin permissions"
)

// Config contains options for the Authorizer.
type Config struct {
	// Logger for structured decision logging. If nil, uses slog.Default().
	Logger *slog.Logger

	// PolicyBytes allows loading policies from a custom source (for testing).
	// If nil, embedded policies.cedar is used.
	PolicyBytes []byte
}

// Authorizer wraps the Cedar policy engine.
type Authorizer struct {
	policies *cedar.PolicySet
	logger   *slog.Logger
}

// NewAuthorizer creates an authorizer with the given configuration.
func NewAuthorizer(cfg Config) (*Authorizer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policyData := cfg.PolicyBytes
	if policyData == nil {
		policyData = policiesContent
	}

	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", policyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policies: %w", err)
	}

	return &Authorizer{
		policies: ps,
		logger:   logger,
	}, nil
}

// Authorize evaluates the request against the policies. Evaluation errors
// deny.
func (a *Authorizer) Authorize(ctx context.Context, req Request) Decision {
	start := time.Now()

	decision, diag := cedar.Authorize(a.policies, buildEntities(req.Principal, req.Resource), buildCedarRequest(req))

	result := Decision{
		Allowed:  decision == cedar.Allow,
		Duration: time.Since(start),
	}
	if len(diag.Reasons) > 0 {
		result.PolicyID = string(diag.Reasons[0].PolicyID)
	}

	if !result.Allowed {
		// An anonymous caller is told to authenticate first even when the
		// resource also needs admin rights.
		if req.Resource.AuthorizationRequired && !req.Principal.Authenticated {
			result.DenyReason = DenyAuthorizationRequired
			result.Reason = MessageAuthorizationRequired
		} else {
			result.DenyReason = DenyAdminRequired
			result.Reason = MessageAdminRequired
		}
	}

	a.logger.Debug("authorization decision",
		"principal", req.Principal.UID,
		"principal_type", req.Principal.Type,
		"resource", req.Resource.Entity,
		"decision", result.Allowed,
		"policy_id", result.PolicyID,
		"request_id", RequestIDFromContext(ctx),
		"duration_us", result.Duration.Microseconds(),
	)
	for _, err := range diag.Errors {
		a.logger.Error("policy evaluation error",
			"policy", err.PolicyID,
			"error", err.Message,
		)
	}

	return result
}
