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
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/audit"
	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtformat"
	"github.com/opentrusty/oidc-core/model"
)

// RefreshTokenService issues and rotates `rt+jwt` refresh tokens.
//
// Purpose: Mints and rotates the long-lived credential that mints new access/identity tokens without re-authentication.
// Domain: OAuth2
type RefreshTokenService struct {
	formatter Formatter
	issuer    IssuerProvider
	ids       IDGenerator
	registry  Registry
	clock     clockwork.Clock
	audit     audit.Logger
}

// NewRefreshTokenService creates a RefreshTokenService. auditLogger may be
// nil, in which case rotation and revocation go unlogged.
func NewRefreshTokenService(formatter Formatter, issuer IssuerProvider, ids IDGenerator, registry Registry, clock clockwork.Clock, auditLogger audit.Logger) *RefreshTokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RefreshTokenService{formatter: formatter, issuer: issuer, ids: ids, registry: registry, clock: clock, audit: auditLogger}
}

// Issue mints a brand-new refresh token: iat = now, exp = iat +
// absolute_expires_in.
func (s *RefreshTokenService) Issue(ctx context.Context, c *client.ClientInfo, authCtx model.AuthorizationContext, session AuthSession) (string, error) {
	now := s.clock.Now()
	exp := now.Add(c.RefreshTokenPolicy.AbsoluteExpiresIn)
	return s.sign(ctx, c, authCtx, session, now, now, exp)
}

// Rotate renews oldToken, preserving its original iat and ordering the
// old jti's revocation (when the client disallows reuse) strictly before
// the new token is issued: revoke-then-issue, never both concurrently.
// The revocation commits first, so a failure between the two (signing
// the replacement, say) leaves the old jti revoked and no new token
// issued; the old token does not stay valid. It returns ("", nil, nil) when the renewed expiry would
// already be in the past (expired beyond the absolute deadline), not an
// error.
func (s *RefreshTokenService) Rotate(ctx context.Context, c *client.ClientInfo, oldToken jwt.Token) (string, *AuthorizationSnapshot, error) {
	oldJTI := claimString(oldToken, "jti")
	iatRaw, _ := oldToken.IssuedAt()
	iat := iatRaw.UTC()
	now := s.clock.Now()

	exp := iat.Add(c.RefreshTokenPolicy.AbsoluteExpiresIn)
	if c.RefreshTokenPolicy.SlidingExpiresIn != nil {
		slidingExp := iat.Add(*c.RefreshTokenPolicy.SlidingExpiresIn)
		if slidingExp.Before(exp) {
			exp = slidingExp
		}
	}
	if !exp.After(now) {
		return "", nil, nil
	}

	session, authCtx := reAuthenticateRefresh(oldToken)

	if !c.RefreshTokenPolicy.AllowReuse {
		if err := s.registry.Revoke(ctx, oldJTI); err != nil {
			return "", nil, fmt.Errorf("token: revoke rotated refresh token: %w", err)
		}
		s.logAudit(ctx, audit.TypeTokenRevoked, c.ClientID, session.Subject, oldJTI)
	}

	newToken, err := s.sign(ctx, c, authCtx, session, iat, now, exp)
	if err != nil {
		return "", nil, fmt.Errorf("token: issue rotated refresh token: %w", err)
	}
	return newToken, &AuthorizationSnapshot{Session: session, Context: authCtx}, nil
}

func (s *RefreshTokenService) logAudit(ctx context.Context, eventType, clientID, subject, jti string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Event{
		Type:      eventType,
		ActorID:   subject,
		Resource:  "refresh_token",
		TargetID:  jti,
		Metadata:  map[string]any{"client_id": clientID},
		Timestamp: s.clock.Now(),
	})
}

// AuthorizationSnapshot bundles the AuthSession and AuthorizationContext
// a refresh-token grant reconstructs, for the token endpoint to package
// alongside the raw rotated token.
type AuthorizationSnapshot struct {
	Session AuthSession
	Context model.AuthorizationContext
}

func (s *RefreshTokenService) sign(ctx context.Context, c *client.ClientInfo, authCtx model.AuthorizationContext, session AuthSession, iat, nbf, exp time.Time) (string, error) {
	jti := s.ids.NewJTI()
	claims := map[string]any{
		"iss":       s.issuer.Issuer(ctx),
		"iat":       iat.Unix(),
		"nbf":       nbf.Unix(),
		"exp":       exp.Unix(),
		"jti":       jti,
		"aud":       []string{c.ClientID},
		"sub":       session.Subject,
		"sid":       session.SessionID,
		"client_id": c.ClientID,
		"scope":     authCtx.Scope,
	}

	alg := signAlgFor("")
	out, err := s.formatter.Format(ctx, jwtformat.TypeRefreshToken, alg, c.ClientID, c.KeyManagementAlgorithm, claims)
	if err != nil {
		return "", fmt.Errorf("token: sign refresh token: %w", err)
	}

	if err := s.registry.Register(ctx, jti, exp); err != nil {
		return "", fmt.Errorf("token: register refresh token: %w", err)
	}
	s.logAudit(ctx, audit.TypeTokenIssued, c.ClientID, session.Subject, jti)
	return out, nil
}

// reAuthenticateRefresh reconstructs the AuthSession + AuthorizationContext
// carried in a refresh token's payload, for renewal and for the token
// endpoint's "authorization from refresh token" grant.
func reAuthenticateRefresh(t jwt.Token) (AuthSession, model.AuthorizationContext) {
	session := AuthSession{
		Subject:   claimString(t, "sub"),
		SessionID: claimString(t, "sid"),
	}
	authCtx := model.AuthorizationContext{
		ClientID:  claimString(t, "client_id"),
		Subject:   session.Subject,
		SessionID: session.SessionID,
		Scope:     claimStringSlice(t, "scope"),
	}
	return session, authCtx
}
