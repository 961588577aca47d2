// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package token implements the four token services: access, identity,
// refresh, and logout JWT creation, plus revocation-ordered rotation for
// refresh tokens.
package token

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtformat"
	"github.com/opentrusty/oidc-core/model"
)

// IssuerProvider supplies the "iss" claim value every issued token
// carries.
type IssuerProvider interface {
	Issuer(ctx context.Context) string
}

// StaticIssuer is the simplest IssuerProvider: one fixed issuer URL for
// the whole deployment.
type StaticIssuer string

// Issuer returns the fixed issuer string.
func (s StaticIssuer) Issuer(context.Context) string { return string(s) }

// UserClaimsProvider resolves the claims released for a subject, filtered
// to scope and the requested-claims object, honoring the client's claim
// policy. A nil return (with a nil error) means the user is unknown or
// access has been denied, per OIDC §5.4; the identity token service
// treats that as "no token issuable", not an error.
type UserClaimsProvider interface {
	UserClaims(ctx context.Context, session *AuthSession, scope []string, requestedClaims map[string]any, client *client.ClientInfo) (map[string]any, error)
}

// Formatter is the subset of *jwtformat.Formatter the token services
// depend on, so they can be seeded with a stub in tests without pulling
// in real signing keys.
type Formatter interface {
	Format(ctx context.Context, typ jwtformat.TokenType, signAlg jwa.SignatureAlgorithm, clientID string, encAlg string, claims map[string]any) (string, error)
}

// Registry is the subset of registry.Registry the refresh-token service
// depends on to revoke a rotated-away jti.
type Registry interface {
	Register(ctx context.Context, jti string, expiresAt time.Time) error
	Revoke(ctx context.Context, jti string) error
	GetStatus(ctx context.Context, jti string) (model.JsonWebTokenStatus, error)
}
