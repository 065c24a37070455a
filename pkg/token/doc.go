// Package token implements the compact bearer token used by the todo API.
//
// A token is three base64url segments joined by dots:
//
//	base64url(header) "." base64url(payload) "." base64url(HMAC-SHA256(secret, seg0 "." seg1))
//
// The payload is serialized with a fixed key order (iss, sub, name, admin,
// exp). The signature covers the serialized bytes, so reordering the payload
// fields invalidates every token issued before the change.
//
// # Usage
//
// Issue a token for a user:
//
//	issuer, err := token.NewIssuer(secret, token.DefaultLifetime)
//	raw, err := issuer.Sign("alice", "Alice", false)
//
// Inspect a presented token:
//
//	d := token.Decode(raw, secret)
//	if !d.Decodable || !d.SignatureValid || d.Expired {
//	    // reject
//	}
//
// Decode never returns an error. Possession of a valid token is not enough to
// authenticate: the raw string must also match the token stored for the user
// (see package store).
package token
