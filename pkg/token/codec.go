package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
)

var (
	// ErrSecretTooShort is returned when the HMAC secret is shorter than MinSecretSize.
	ErrSecretTooShort = fmt.Errorf("token secret must be at least %d bytes", MinSecretSize)

	// ErrUnsupportedAlgorithm is returned when a header asks for anything but HS256.
	ErrUnsupportedAlgorithm = errors.New("unsupported token algorithm: only HS256 is permitted")
)

// maxTokenSize bounds the input accepted by Decode.
const maxTokenSize = 8 * 1024

// Encode serializes and signs a token.
//
// The payload is marshaled once and those exact bytes are signed, so the
// claim order of Payload is preserved on the wire.
func Encode(h Header, p Payload, secret []byte) (string, error) {
	if len(secret) < MinSecretSize {
		return "", ErrSecretTooShort
	}
	if h.Alg == "" {
		h.Alg = AlgHS256
	}
	// CRITICAL: the algorithm is fixed. The header value is only checked,
	// never used to pick the MAC.
	if h.Alg != AlgHS256 {
		return "", ErrUnsupportedAlgorithm
	}

	opts := &jose.SignerOptions{}
	if h.Typ != "" {
		opts = opts.WithType(jose.ContentType(h.Typ))
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secret}, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	jws, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	raw, err := jws.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize token: %w", err)
	}
	return raw, nil
}

// Decode parses a token and checks its signature and expiry against the
// current time. It never fails; see Decoded for the defaults.
func Decode(raw string, secret []byte) Decoded {
	return DecodeAt(raw, secret, time.Now())
}

// DecodeAt is Decode with an explicit clock.
func DecodeAt(raw string, secret []byte, now time.Time) Decoded {
	d := Decoded{Expired: true}

	parts := strings.Split(raw, ".")
	if len(parts) < 3 {
		return d
	}
	d.Decodable = true
	d.Signature = parts[2]

	// Malformed segments leave the zero value in place; the signature check
	// below decides whether the token is usable at all.
	if b, err := base64.RawURLEncoding.DecodeString(parts[0]); err == nil {
		_ = json.Unmarshal(b, &d.Header)
	}
	if b, err := base64.RawURLEncoding.DecodeString(parts[1]); err == nil {
		_ = json.Unmarshal(b, &d.Payload)
	}

	d.SignatureValid = verify(raw, secret)
	d.Expired = d.Payload.Exp-now.Unix() < 0
	return d
}

// verify checks the HS256 MAC over the first two segments.
func verify(raw string, secret []byte) bool {
	if len(raw) > maxTokenSize || len(secret) == 0 {
		return false
	}
	jws, err := jose.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return false
	}
	_, err = jws.Verify(secret)
	return err == nil
}

// Issuer signs tokens for users with a fixed secret and lifetime.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastExp int64
}

// NewIssuer creates an issuer. A zero lifetime uses DefaultLifetime.
func NewIssuer(secret []byte, lifetime time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrSecretTooShort
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Issuer{secret: secret, lifetime: lifetime, now: time.Now}, nil
}

// Sign issues a token for the given user. Its signature matches
// store.TokenSigner so the store can issue tokens without seeing the secret.
//
// Signing is deterministic, so exp is kept strictly increasing across calls:
// a reissued token always differs from the one it replaces.
func (i *Issuer) Sign(username, name string, admin bool) (string, error) {
	p := NewPayload(username, name, admin, i.now().Add(i.lifetime))

	i.mu.Lock()
	if p.Exp <= i.lastExp {
		p.Exp = i.lastExp + 1
	}
	i.lastExp = p.Exp
	i.mu.Unlock()

	return Encode(DefaultHeader(), p, i.secret)
}

// Decode verifies a token against the issuer's secret.
func (i *Issuer) Decode(raw string) Decoded {
	return DecodeAt(raw, i.secret, i.now())
}
