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

package authorize

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/config"
	"github.com/opentrusty/oidc-core/model"
	"github.com/opentrusty/oidc-core/token"
)

// CodeGenerator mints the opaque authorization code string. A *
// id.Generator satisfies this through its NewOpaqueToken method.
type CodeGenerator interface {
	NewOpaqueToken(byteLen int) (string, error)
}

// CodeRepository is the subset of client.AuthorizationCodeRepository the
// processor depends on to persist a freshly minted authorization code.
type CodeRepository interface {
	Create(ctx context.Context, code *client.AuthorizationCode) error
}

// AccessIssuer is the subset of *token.AccessTokenService the processor
// depends on.
type AccessIssuer interface {
	Issue(ctx context.Context, c *client.ClientInfo, authCtx model.AuthorizationContext, session token.AuthSession) (compact, jti string, expiresIn int64, err error)
}

// IdentityIssuer is the subset of *token.IdentityTokenService the
// processor depends on.
type IdentityIssuer interface {
	Issue(ctx context.Context, c *client.ClientInfo, authCtx model.AuthorizationContext, session token.AuthSession, opts token.IssueOptions) (string, error)
}

// SessionRecorder is the subset of *authsession.Service the processor
// depends on to track which clients a session has since authorized.
type SessionRecorder interface {
	RecordAffectedClient(ctx context.Context, sessionID, clientID string) error
}

// DefaultCodeExpiresIn is how long a freshly minted authorization code
// remains redeemable when Processor.Config leaves CodeExpiresIn at its
// zero value.
const DefaultCodeExpiresIn = 5 * time.Minute

// Processor issues the code/access/identity tokens an authorization
// request's resolved flow type calls for, and persists whatever the issued
// grant requires (authorization codes, the session's affected-client
// set).
//
// Purpose: Turns a validated authorization request into issued tokens.
// Domain: OAuth2
type Processor struct {
	Codes    CodeRepository
	IDs      CodeGenerator
	Access   AccessIssuer
	Identity IdentityIssuer
	Sessions SessionRecorder
	Clock    clockwork.Clock
	Config   config.Authorize
}

// Process issues the grant for vctx against the end-user's AuthSession,
// per the resolved FlowType: AuthorizationCode mints a code only; Implicit
// mints access/identity tokens directly into the fragment; Hybrid mints
// whichever of code/access/identity the response_type named.
func (p *Processor) Process(ctx context.Context, vctx *model.AuthorizationValidationContext, session token.AuthSession) (*model.AuthorizedGrant, *model.RequestError) {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg := p.Config.WithDefaults()
	info := vctx.ClientInfo()
	flowType := vctx.FlowType()

	authCtx := model.AuthorizationContext{
		ClientID:        info.ClientID,
		Subject:         session.Subject,
		SessionID:       session.SessionID,
		Scope:           scopeNames(vctx.Scopes),
		Resources:       resourceIdentifiers(vctx.Resources),
		Nonce:           vctx.Request.Nonce,
		ACR:             session.ACR,
		AMR:             session.AMR,
		AuthTime:        session.AuthenticationTime,
		RequestedClaims: vctx.RequestedClaims,
	}

	grant := &model.AuthorizedGrant{
		FlowType:     flowType,
		ResponseMode: vctx.ResponseMode,
		RedirectURI:  vctx.ValidRedirectURI,
		State:        vctx.Request.State,
		TokenType:    "Bearer",
		Context:      authCtx,
	}

	wantsCode := vctx.Request.HasResponseType(model.ResponseTypeCode)
	wantsAccessToken := vctx.Request.HasResponseType(model.ResponseTypeToken)
	wantsIDToken := vctx.Request.HasResponseType(model.ResponseTypeIDToken)

	if wantsCode {
		code, requestErr := p.issueCode(ctx, clock, cfg, info, vctx, authCtx)
		if requestErr != nil {
			return nil, requestErr
		}
		grant.Code = code
	}

	if wantsAccessToken {
		compact, _, expiresIn, err := p.Access.Issue(ctx, info, authCtx, session)
		if err != nil {
			return nil, unexpectedError(vctx, "issue access token")
		}
		grant.AccessToken = compact
		grant.ExpiresIn = expiresIn
	}

	if wantsIDToken {
		idToken, err := p.Identity.Issue(ctx, info, authCtx, session, token.IssueOptions{
			IncludesUserClaims: true,
			AuthorizationCode:  grant.Code,
			AccessToken:        grant.AccessToken,
		})
		if err != nil {
			return nil, unexpectedError(vctx, "issue identity token")
		}
		grant.IdentityToken = idToken
	}

	if p.Sessions != nil && session.SessionID != "" {
		if err := p.Sessions.RecordAffectedClient(ctx, session.SessionID, info.ClientID); err != nil {
			return nil, unexpectedError(vctx, "record affected client")
		}
	}

	return grant, nil
}

func (p *Processor) issueCode(ctx context.Context, clock clockwork.Clock, cfg config.Authorize, info *client.ClientInfo, vctx *model.AuthorizationValidationContext, authCtx model.AuthorizationContext) (string, *model.RequestError) {
	raw, err := p.IDs.NewOpaqueToken(cfg.CodeByteLen)
	if err != nil {
		return "", unexpectedError(vctx, "generate authorization code")
	}

	now := clock.Now()
	code := &client.AuthorizationCode{
		Code:                raw,
		ClientID:            info.ClientID,
		SessionID:           authCtx.SessionID,
		Subject:             authCtx.Subject,
		RedirectURI:         vctx.ValidRedirectURI,
		Scope:               authCtx.Scope,
		State:               vctx.Request.State,
		Nonce:               vctx.Request.Nonce,
		CodeChallenge:       vctx.CodeChallenge,
		CodeChallengeMethod: vctx.CodeChallengeMethod,
		Resources:           authCtx.Resources,
		ExpiresAt:           now.Add(cfg.CodeExpiresIn),
		CreatedAt:           now,
	}
	if err := p.Codes.Create(ctx, code); err != nil {
		return "", unexpectedError(vctx, "persist authorization code")
	}
	return raw, nil
}

func unexpectedError(vctx *model.AuthorizationValidationContext, what string) *model.RequestError {
	return &model.RequestError{
		Code:         "server_error",
		Description:  fmt.Sprintf("failed to %s", what),
		RedirectURI:  vctx.ValidRedirectURI,
		ResponseMode: vctx.ResponseMode,
		State:        vctx.Request.State,
	}
}

func scopeNames(scopes []model.ScopeDefinition) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = s.Name
	}
	return out
}

func resourceIdentifiers(resources []model.ResourceDefinition) []string {
	if len(resources) == 0 {
		return nil
	}
	out := make([]string, len(resources))
	for i, r := range resources {
		out[i] = r.Audience
	}
	return out
}
