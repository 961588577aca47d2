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

package token

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtformat"
	"github.com/opentrusty/oidc-core/model"
)

// IDGenerator is the subset of id.Generator the token services need.
type IDGenerator interface {
	NewJTI() string
}

// AccessTokenService issues `at+jwt` access tokens (RFC 9068).
//
// Purpose: Mints self-contained bearer tokens authorizing API access.
// Domain: OAuth2
type AccessTokenService struct {
	formatter Formatter
	issuer    IssuerProvider
	ids       IDGenerator
	clock     clockwork.Clock
}

// NewAccessTokenService creates an AccessTokenService.
func NewAccessTokenService(formatter Formatter, issuer IssuerProvider, ids IDGenerator, clock clockwork.Clock) *AccessTokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AccessTokenService{formatter: formatter, issuer: issuer, ids: ids, clock: clock}
}

// signAlgFor resolves a client's configured access-token signing
// algorithm, defaulting to RS256 when the client hasn't set one.
func signAlgFor(alg string) jwa.SignatureAlgorithm {
	if alg == "" {
		return jwa.RS256()
	}
	a, err := jwa.KeyAlgorithmFrom(alg)
	if err != nil {
		return jwa.RS256()
	}
	signAlg, ok := a.(jwa.SignatureAlgorithm)
	if !ok {
		return jwa.RS256()
	}
	return signAlg
}

// Issue mints a new access token bound to authCtx and session.
func (s *AccessTokenService) Issue(ctx context.Context, c *client.ClientInfo, authCtx model.AuthorizationContext, session AuthSession) (compact string, jti string, expiresIn int64, err error) {
	now := s.clock.Now()
	exp := now.Add(c.AccessTokenExpiresIn)
	jti = s.ids.NewJTI()

	aud := []string{c.ClientID}
	if len(authCtx.Resources) > 0 {
		aud = authCtx.Resources
	}

	claims := map[string]any{
		"iss":       s.issuer.Issuer(ctx),
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       exp.Unix(),
		"jti":       jti,
		"sub":       session.Subject,
		"sid":       session.SessionID,
		"auth_time": session.AuthenticationTime.Unix(),
		"idp":       session.IdentityProvider,
		"client_id": c.ClientID,
		"scope":     authCtx.Scope,
		"aud":       aud,
	}
	for k, v := range session.AdditionalClaims {
		claims[k] = v
	}

	alg := signAlgFor(c.AccessTokenSigningAlgorithm())
	out, err := s.formatter.Format(ctx, jwtformat.TypeAccessToken, alg, c.ClientID, c.KeyManagementAlgorithm, claims)
	if err != nil {
		return "", "", 0, fmt.Errorf("token: issue access token: %w", err)
	}
	return out, jti, int64(c.AccessTokenExpiresIn.Seconds()), nil
}

// ReAuthenticate reconstructs the AuthSession and AuthorizationContext a
// previously issued access token was built from: when the token's
// audience is exactly [client_id] (the self-audience default), Resources
// is nil rather than [client_id], since that aud value recorded no
// resource indicator, it was just the fallback.
func ReAuthenticate(parsed jwt.Token) (AuthSession, model.AuthorizationContext) {
	session := AuthSession{
		Subject:            claimString(parsed, "sub"),
		SessionID:          claimString(parsed, "sid"),
		AuthenticationTime: claimTime(parsed, "auth_time"),
		IdentityProvider:   claimString(parsed, "idp"),
		Email:              claimString(parsed, "email"),
		EmailVerified:      claimBool(parsed, "email_verified"),
		AdditionalClaims: remainingClaims(parsed,
			"iss", "iat", "nbf", "exp", "jti", "sub", "sid", "auth_time",
			"idp", "client_id", "scope", "aud", "email", "email_verified"),
	}

	clientID := claimString(parsed, "client_id")
	aud := claimStringSlice(parsed, "aud")
	var resources []string
	if !(len(aud) == 1 && aud[0] == clientID) {
		resources = aud
	}

	authCtx := model.AuthorizationContext{
		ClientID:  clientID,
		Subject:   session.Subject,
		SessionID: session.SessionID,
		Scope:     claimStringSlice(parsed, "scope"),
		Resources: resources,
	}
	return session, authCtx
}
