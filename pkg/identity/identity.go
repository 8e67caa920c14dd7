// Package identity provides the injected signing identity collaborator:
// an opaque value used to stamp envelopes where the protocol calls for it
// (PmidRegistration). The core only treats the stamp as opaque bytes
// embedded in a payload record; this package is the one place that knows
// it is a compact JWS.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marmos91/maidnode/pkg/ids"
)

// Claims is the JWT claim set a signing identity stamps onto a
// PmidRegistration-family request, letting a vault verify the node id the
// registration claims without re-deriving it from the payload bytes.
type Claims struct {
	jwt.RegisteredClaims

	// MaidName is the hex-encoded identity of the registering client.
	MaidName string `json:"maid_name"`
	// PmidName is the hex-encoded identity of the storage node being
	// registered or unregistered.
	PmidName string `json:"pmid_name"`
	// Unregister distinguishes a registration from a deregistration claim.
	Unregister bool `json:"unregister"`
}

// Identity is the maidnode client's signing identity: the local node's
// address plus the HMAC secret used to stamp PmidRegistration claims.
// Persistent passport/key material lives outside this client; this is the
// minimal stand-in the dispatcher can call synchronously.
type Identity struct {
	node   ids.NodeId
	secret []byte
	issuer string
	ttl    time.Duration
}

// ErrShortSecret is returned by New when the supplied secret is too short
// to be a safe HMAC key.
var ErrShortSecret = errors.New("identity: signing secret must be at least 32 bytes")

// New constructs a signing Identity for node, stamping claims with secret
// (HMAC-SHA256) under issuer and a ttl validity window. ttl<=0 defaults to
// one minute, long enough to cover dispatch-to-delivery latency without
// letting a captured stamp be replayed indefinitely.
func New(node ids.NodeId, secret []byte, issuer string, ttl time.Duration) (*Identity, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	if issuer == "" {
		issuer = "maidnode"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &Identity{node: node, secret: cp, issuer: issuer, ttl: ttl}, nil
}

// Node returns the overlay node address this identity signs for; the
// dispatcher uses it as the sender on every outbound envelope.
func (id *Identity) Node() ids.NodeId { return id.node }

// StampPmidRegistration produces the compact JWS carried in a
// PmidRegistration payload's SignedClaims field.
func (id *Identity) StampPmidRegistration(maidName, pmidName ids.Identity, unregister bool) ([]byte, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    id.issuer,
			Subject:   id.node.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(id.ttl)),
		},
		MaidName:   maidName.String(),
		PmidName:   pmidName.String(),
		Unregister: unregister,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(id.secret)
	if err != nil {
		return nil, fmt.Errorf("identity: sign pmid registration: %w", err)
	}
	return []byte(signed), nil
}

// VerifyPmidRegistration parses and validates a stamp produced by
// StampPmidRegistration, used by tests and by a vault-side verifier sharing
// the same secret out of band.
func (id *Identity) VerifyPmidRegistration(stamp []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(string(stamp), &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %v", t.Header["alg"])
		}
		return id.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("identity: verify pmid registration: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("identity: invalid pmid registration stamp")
	}
	return claims, nil
}
