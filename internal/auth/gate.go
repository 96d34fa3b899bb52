package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/castlelight/gambit/internal/crypto"
)

var (
	// ErrUnauthenticated means the credential could not be resolved to an
	// identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAccessDenied means the identity resolved but lacks every
	// required role.
	ErrAccessDenied = errors.New("access denied: insufficient permissions")
)

// Identity is a resolved credential: a durable player identity plus the
// role set it carried at verification time.
type Identity struct {
	// Subject is the token subject.
	Subject string
	// Email is the durable identity key used to resolve players.
	Email string
	// Gamertag is the display name claim, when present.
	Gamertag string
	// Roles is the role set at verification time. Role membership can
	// change between messages, so this is never cached across messages.
	Roles []string
}

// TokenVerifier resolves an opaque credential to an identity and role
// set.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Gate authorizes one message given the caller's credential and the
// message kind's required roles.
//
// Verification runs on every call; the gate holds no identity state.
type Gate struct {
	verifier TokenVerifier
}

// NewGate creates a gate over the given verifier.
func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authorize resolves the credential and checks it against the required
// roles. An empty required-role list allows any resolved identity. The
// identity must hold at least one of the required roles.
func (g *Gate) Authorize(ctx context.Context, token string, requiredRoles []string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	ident, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if len(requiredRoles) == 0 {
		return ident, nil
	}

	for _, required := range requiredRoles {
		for _, role := range ident.Roles {
			if role == required {
				return ident, nil
			}
		}
	}

	return Identity{}, ErrAccessDenied
}

// JWTVerifier implements TokenVerifier over the local JWT manager.
type JWTVerifier struct {
	Manager *crypto.JWTManager
}

// Verify parses and validates the token, mapping its claims to an
// Identity.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := v.Manager.VerifyToken(token)
	if err != nil {
		return Identity{}, err
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("token carries no email claim")
	}
	return Identity{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Gamertag: claims.Gamertag,
		Roles:    claims.RealmAccess.Roles,
	}, nil
}
