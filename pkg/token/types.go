package token

import "time"

const (
	// TypeJWT is the typ header value written into every token.
	TypeJWT = "JWT"

	// AlgHS256 is the only supported signature algorithm.
	AlgHS256 = "HS256"

	// DefaultIssuer is the iss claim of tokens issued by this service.
	DefaultIssuer = "pure-todo"

	// DefaultLifetime is how long an issued token stays unexpired.
	DefaultLifetime = 10 * 365 * 24 * time.Hour

	// MinSecretSize is the minimum HMAC secret length in bytes. HS256 keys
	// must be at least as long as the hash output.
	MinSecretSize = 32
)

// Header is the JOSE header of a token.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// DefaultHeader returns the header used for newly issued tokens.
func DefaultHeader() Header {
	return Header{Alg: AlgHS256, Typ: TypeJWT}
}

// Payload is the claim set carried by a token.
//
// Field order is part of the signed bytes. Do not reorder.
type Payload struct {
	Iss   string `json:"iss"`
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	Exp   int64  `json:"exp"`
}

// NewPayload builds the claims for a user. A zero expires uses now plus
// DefaultLifetime.
func NewPayload(username, name string, admin bool, expires time.Time) Payload {
	if expires.IsZero() {
		expires = time.Now().Add(DefaultLifetime)
	}
	return Payload{
		Iss:   DefaultIssuer,
		Sub:   username,
		Name:  name,
		Admin: admin,
		Exp:   expires.Unix(),
	}
}

// Decoded is the best-effort parse of a presented token.
type Decoded struct {
	Header    Header
	Payload   Payload
	Signature string

	// Decodable is false when the token does not have three dot-separated
	// segments. Such a token is treated as absent, not as forged.
	Decodable bool

	// SignatureValid reports whether the signature matches the first two
	// segments under the server secret.
	SignatureValid bool

	// Expired reports exp - now < 0. Defaults to true when nothing could be
	// parsed.
	Expired bool
}
