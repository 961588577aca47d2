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

package endsession

import (
	"context"
	"log/slog"
)

// PostLogoutRedirectUrisValidator requires client_info to already be
// resolved before it will accept a post_logout_redirect_uri, and requires
// an exact match against the client's registered set.
// A request with no post_logout_redirect_uri at all skips this check
// entirely.
//
// Purpose: Prevents logout from redirecting anywhere the client hasn't registered.
// Domain: OIDC
type PostLogoutRedirectUrisValidator struct {
	Clients  ClientInfoProvider
	TenantID string
}

// Validate runs the stage against vctx.
func (v *PostLogoutRedirectUrisValidator) Validate(ctx context.Context, vctx *ValidationContext) *RequestError {
	if vctx.Request.PostLogoutRedirectURI == "" {
		return nil
	}

	if vctx.ClientInfo == nil && vctx.EffectiveClientID != "" {
		info, err := v.Clients.GetClientByClientID(ctx, v.TenantID, vctx.EffectiveClientID)
		if err == nil && info != nil {
			vctx.ClientInfo = info
		}
	}
	if vctx.ClientInfo == nil {
		return newError("unauthorized_client", "client is not registered")
	}

	if !vctx.ClientInfo.ValidatePostLogoutRedirectURI(vctx.Request.PostLogoutRedirectURI) {
		slog.WarnContext(ctx, "PostLogoutRedirectUrisValidator: post_logout_redirect_uri mismatch",
			"client_id", vctx.ClientInfo.ClientID, "post_logout_redirect_uri", vctx.Request.PostLogoutRedirectURI)
		return newError("invalid_request", "post_logout_redirect_uri is not registered for this client")
	}
	return nil
}
