// Package auth resolves the bearer token of an HTTP request to a user.
//
// Resolution never rejects a request. It yields a [Status] and, when the
// status is [StatusOk], the authenticated user. Whether a request may proceed
// is decided later by the router's authorization gates, so anonymous callers
// can still reach public resources such as the status endpoint.
//
// Statuses are checked in a fixed order and the first that applies wins:
//
//	Missing    no Authorization header, no "Bearer " prefix, or not a token
//	Invalid    signature does not verify
//	Expired    exp claim is in the past
//	NoSubject  sub claim is empty
//	NotFound   no enabled user currently holds this exact token
//	Ok
//
// The user lookup matches the raw token string, so issuing a new token to a
// user revokes the old one on the next request. Nothing is cached between
// requests.
package auth
