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

// Package clientjwt validates JWTs a client itself produced and handed
// back to the server: JAR request objects and client_assertion-style
// client authentication. Both share the same shape (issuer is the
// client_id, audience is this endpoint, keys are whatever the client
// registered) so one generic validator binds the audience, issuer, and
// key-resolution callbacks instead of duplicating the jwt.Parse wiring
// per call site.
package clientjwt

import (
	"context"
	"fmt"
	"sync"

	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtkeys"
	"github.com/opentrusty/oidc-core/model"
)

// ClientInfoProvider resolves a client_id to its registered ClientInfo,
// the same collaborator the authorization pipeline's ClientValidator
// uses.
type ClientInfoProvider interface {
	GetClientByClientID(ctx context.Context, tenantID, clientID string) (*client.ClientInfo, error)
}

// Validator parses and validates a client-issued JWT against a single
// expected audience (the current endpoint's URI), caching the client it
// resolves on first success. A *Validator is meant for one logical
// validation target per instance (e.g. "the PAR endpoint", "the token
// endpoint's client_assertion audience"), not shared across requests
// with different expected issuers, because mixing issuers on one
// instance is a programming error, and panics as such.
//
// Purpose: Generic verifier for JAR request objects and client JWT assertions.
// Domain: OIDC
type Validator struct {
	audience string
	clients  ClientInfoProvider
	keys     jwtkeys.Resolver
	tenantID string

	mu            sync.Mutex
	cachedIssuer  string
	cachedClient  *client.ClientInfo
	cachedResolve bool
}

// New creates a Validator expecting tokens addressed to audience (this
// endpoint's URI) and issued by a known client_id.
func New(audience, tenantID string, clients ClientInfoProvider, keys jwtkeys.Resolver) *Validator {
	return &Validator{audience: audience, tenantID: tenantID, clients: clients, keys: keys}
}

// Validate parses and verifies raw: signature, issuer (a known
// client_id), audience (this endpoint), signing key (the resolved
// client's registered keys), and lifetime. It returns the parsed token
// and the resolved ClientInfo.
func (v *Validator) Validate(ctx context.Context, raw string) (jwt.Token, *client.ClientInfo, error) {
	// The signing keys to verify against depend on which client issued
	// the token, so the issuer is read from an unverified parse first;
	// nothing else is trusted from it until the full parse below.
	unverified, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("clientjwt: parse: %w", err)
	}
	issuer, ok := unverified.Issuer()
	if !ok || issuer == "" {
		return nil, nil, fmt.Errorf("clientjwt: token has no issuer")
	}

	info, err := v.resolveClient(ctx, issuer)
	if err != nil {
		return nil, nil, err
	}

	set, err := v.keys.ClientVerificationKeys(ctx, info.ClientID)
	if err != nil {
		return nil, nil, fmt.Errorf("clientjwt: resolve client keys: %w", err)
	}
	if set == nil || set.Len() == 0 {
		return nil, nil, fmt.Errorf("clientjwt: no verification keys registered for client %q", info.ClientID)
	}

	token, err := jwt.Parse([]byte(raw),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(v.audience),
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true), jws.WithRequireKid(false)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clientjwt: validate: %w", err)
	}
	return token, info, nil
}

// resolveClient resolves issuer to its ClientInfo, caching the result.
// A reused instance seeing a differing issuer after a successful
// resolution panics: one Validator serves one logical issuer.
func (v *Validator) resolveClient(ctx context.Context, issuer string) (*client.ClientInfo, error) {
	v.mu.Lock()
	if v.cachedResolve {
		cachedIssuer, cached := v.cachedIssuer, v.cachedClient
		v.mu.Unlock()
		if cachedIssuer != issuer {
			panic(model.ErrProgrammingInvariant("clientjwt.Validator reused with a differing issuer"))
		}
		return cached, nil
	}
	v.mu.Unlock()

	info, err := v.clients.GetClientByClientID(ctx, v.tenantID, issuer)
	if err != nil || info == nil {
		return nil, fmt.Errorf("clientjwt: unknown issuer %q", issuer)
	}

	v.mu.Lock()
	v.cachedIssuer = issuer
	v.cachedClient = info
	v.cachedResolve = true
	v.mu.Unlock()
	return info, nil
}
