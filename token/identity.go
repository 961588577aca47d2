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

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtformat"
	"github.com/opentrusty/oidc-core/model"
)

// IdentityTokenService issues `id+jwt` identity tokens (OIDC Core §2).
//
// Purpose: Mints the ID token asserting an authentication event to a client.
// Domain: OIDC
type IdentityTokenService struct {
	formatter Formatter
	issuer    IssuerProvider
	claims    UserClaimsProvider
	clock     clockwork.Clock
}

// NewIdentityTokenService creates an IdentityTokenService.
func NewIdentityTokenService(formatter Formatter, issuer IssuerProvider, claims UserClaimsProvider, clock clockwork.Clock) *IdentityTokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IdentityTokenService{formatter: formatter, issuer: issuer, claims: claims, clock: clock}
}

// IssueOptions carries the pieces of the id_token payload that exist
// only for some issuance paths: c_hash/at_hash need the raw code/access
// token that accompanied this one, and "includes user claims" governs
// the profile/email/address scope-stripping rule.
type IssueOptions struct {
	IncludesUserClaims bool
	AuthorizationCode  string
	AccessToken        string
}

// Issue mints a new identity token bound to authCtx and session, or
// returns ("", nil) if the UserClaimsProvider reports the user unknown
// or access denied (OIDC §5.4). That is not an error, it is "no id_token
// issuable for this subject right now".
func (s *IdentityTokenService) Issue(ctx context.Context, c *client.ClientInfo, authCtx model.AuthorizationContext, session AuthSession, opts IssueOptions) (string, error) {
	scope := authCtx.Scope
	if !opts.IncludesUserClaims && !c.ForceUserClaimsInIdentityToken {
		scope = stripProfileScopes(scope)
	}

	userClaims, err := s.claims.UserClaims(ctx, &session, scope, authCtx.RequestedClaims, c)
	if err != nil {
		return "", fmt.Errorf("token: resolve user claims: %w", err)
	}
	if userClaims == nil {
		return "", nil
	}

	now := s.clock.Now()
	exp := now.Add(c.IdentityTokenExpiresIn)

	claims := map[string]any{
		"iss":       s.issuer.Issuer(ctx),
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       exp.Unix(),
		"aud":       []string{c.ClientID},
		"nonce":     authCtx.Nonce,
		"sid":       authCtx.SessionID,
		"auth_time": authCtx.AuthTime.Unix(),
		"acr":       authCtx.ACR,
		"amr":       authCtx.AMR,
	}
	for k, v := range userClaims {
		claims[k] = v
	}

	alg := signAlgFor(c.IdentityTokenSignedResponseAlgorithm)
	if opts.AuthorizationCode != "" {
		claims["c_hash"] = leftHalfHash(alg, opts.AuthorizationCode)
	}
	if opts.AccessToken != "" {
		claims["at_hash"] = leftHalfHash(alg, opts.AccessToken)
	}

	out, err := s.formatter.Format(ctx, jwtformat.TypeIdentityToken, alg, c.ClientID, c.KeyManagementAlgorithm, claims)
	if err != nil {
		return "", fmt.Errorf("token: issue identity token: %w", err)
	}
	return out, nil
}

// stripProfileScopes removes profile/email/address per OIDC Core §5.4,
// preserving order and any other scope untouched.
func stripProfileScopes(scope []string) []string {
	out := make([]string, 0, len(scope))
	for _, sc := range scope {
		if client.ProfileClaimScopes[sc] {
			continue
		}
		out = append(out, sc)
	}
	return out
}
