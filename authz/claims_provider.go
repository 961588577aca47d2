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

package authz

import (
	"context"
	"fmt"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/token"
	"github.com/opentrusty/oidc-core/user"
)

// UserDirectory is the subset of *user.Service the ClaimsProvider depends
// on to resolve the OIDC standard profile claims.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*user.User, error)
}

// ClaimsProvider implements token.UserClaimsProvider over the RBAC engine
// and the user directory: it resolves the OIDC standard claims the
// profile and email scopes grant (no address claims are produced) and
// always adds the caller's roles and
// accessible projects, since those ride alongside the standard claims
// rather than behind a scope of their own.
//
// Purpose: Default UserClaimsProvider; RBAC- and directory-backed ID token/userinfo claims.
// Domain: OIDC
type ClaimsProvider struct {
	authz *Service
	users UserDirectory
}

// NewClaimsProvider creates a ClaimsProvider.
func NewClaimsProvider(authz *Service, users UserDirectory) *ClaimsProvider {
	return &ClaimsProvider{authz: authz, users: users}
}

// UserClaims implements token.UserClaimsProvider. A user the directory no
// longer has (deleted, deprovisioned) resolves as (nil, nil) per OIDC
// §5.4; the caller treats that as "no claims issuable", not an error.
func (p *ClaimsProvider) UserClaims(ctx context.Context, session *token.AuthSession, scope []string, requestedClaims map[string]any, c *client.ClientInfo) (map[string]any, error) {
	u, err := p.users.GetUser(ctx, session.Subject)
	if err != nil {
		return nil, nil
	}

	claims := map[string]any{"sub": u.ID}

	if hasScope(scope, client.ScopeProfile) {
		claims["given_name"] = u.Profile.GivenName
		claims["family_name"] = u.Profile.FamilyName
		claims["name"] = u.Profile.GivenName + " " + u.Profile.FamilyName
		claims["updated_at"] = u.UpdatedAt.Unix()
	}
	if hasScope(scope, client.ScopeEmail) && u.EmailPlain != nil {
		claims["email"] = *u.EmailPlain
		claims["email_verified"] = u.EmailVerified
	}

	info, err := p.authz.BuildUserInfoClaims(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("authz: resolve user info claims: %w", err)
	}
	claims["roles"] = info.Roles
	claims["projects"] = info.Projects

	return claims, nil
}

func hasScope(scope []string, want string) bool {
	for _, s := range scope {
		if s == want {
			return true
		}
	}
	return false
}
