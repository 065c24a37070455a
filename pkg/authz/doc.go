// Package authz provides Cedar-based authorization for the todo API.
//
// The router consults the Authorizer before dispatching to a repository.
// Each repository exposes two gates, whether authorization is required and
// whether admin rights are required, and those become attributes of the
// Cedar resource. The caller becomes the Cedar principal:
//
//	Todo::User::"<id>"        an authenticated user, attrs authenticated and admin
//	Todo::Anonymous::"anon"   everyone else, both attrs false
//
// Policies live in the embedded policies.cedar. Anything not explicitly
// permitted is denied.
//
// # Usage
//
//	authorizer, err := authz.NewAuthorizer(authz.Config{Logger: logger})
//
//	decision := authorizer.Authorize(ctx, authz.Request{
//		Principal: authz.UserPrincipal(user.ID, user.Admin),
//		Resource: authz.Resource{
//			Entity:                "lists",
//			AuthorizationRequired: true,
//		},
//	})
//	if !decision.Allowed {
//		// decision.Reason is safe to return to the client
//	}
//
// # Thread Safety
//
// Authorizer is safe for concurrent use. The underlying Cedar PolicySet
// is immutable after construction.
package authz
