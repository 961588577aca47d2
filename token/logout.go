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
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/opentrusty/oidc-core/audit"
	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtformat"
)

// ErrNoBackChannelLogout is returned when the client has no back-channel
// logout endpoint configured.
var ErrNoBackChannelLogout = errors.New("token: client has no back-channel logout configured")

// ErrMissingSessionID is returned when the client requires a session_id
// in its logout token and the session carries none.
var ErrMissingSessionID = errors.New("token: client requires session_id but none is available")

// ErrNoSubjectOrSession is returned when both the subject and session_id
// are empty; a logout token naming neither identifies nothing to log
// out.
var ErrNoSubjectOrSession = errors.New("token: logout token needs a subject or a session_id")

// backChannelLogoutEventURI is the OIDC back-channel logout event type,
// RFC-fixed and carried verbatim in every logout token's "events" claim.
const backChannelLogoutEventURI = "http://schemas.openid.net/event/backchannel-logout"

// LogoutTokenService issues `logout+jwt` back-channel logout tokens
// (OIDC Back-Channel Logout 1.0 §2.4). Unlike the other services, its
// payload must never carry a "nonce" claim: the profile forbids it to
// prevent a logout token being mistaken for an id_token.
//
// Purpose: Mints the token a relying party's back-channel logout endpoint receives.
// Domain: OIDC
type LogoutTokenService struct {
	formatter Formatter
	issuer    IssuerProvider
	ids       IDGenerator
	clock     clockwork.Clock
	audit     audit.Logger
}

// NewLogoutTokenService creates a LogoutTokenService. auditLogger may be
// nil, in which case issuance goes unlogged.
func NewLogoutTokenService(formatter Formatter, issuer IssuerProvider, ids IDGenerator, clock clockwork.Clock, auditLogger audit.Logger) *LogoutTokenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LogoutTokenService{formatter: formatter, issuer: issuer, ids: ids, clock: clock, audit: auditLogger}
}

// Issue mints a logout token for subject/sessionID against c.
func (s *LogoutTokenService) Issue(ctx context.Context, c *client.ClientInfo, subject, sessionID string) (string, error) {
	if c.BackChannelLogout == nil {
		return "", ErrNoBackChannelLogout
	}
	if c.BackChannelLogout.RequiresSessionID && sessionID == "" {
		return "", ErrMissingSessionID
	}
	if subject == "" && sessionID == "" {
		return "", ErrNoSubjectOrSession
	}

	now := s.clock.Now()
	exp := now.Add(c.BackChannelLogout.LogoutTokenExpiresIn)

	claims := map[string]any{
		"iss": s.issuer.Issuer(ctx),
		"aud": []string{c.ClientID},
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
		"jti": s.ids.NewJTI(),
		"events": map[string]any{
			backChannelLogoutEventURI: map[string]any{},
		},
	}
	if subject != "" {
		claims["sub"] = subject
	}
	if sessionID != "" {
		claims["sid"] = sessionID
	}

	out, err := s.formatter.Format(ctx, jwtformat.TypeLogoutToken, signAlgFor(""), c.ClientID, c.KeyManagementAlgorithm, claims)
	if err != nil {
		return "", fmt.Errorf("token: issue logout token: %w", err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, audit.Event{
			Type:      audit.TypeTokenIssued,
			ActorID:   subject,
			Resource:  "logout_token",
			TargetID:  c.ClientID,
			Metadata:  map[string]any{"session_id": sessionID},
			Timestamp: now,
		})
	}
	return out, nil
}
