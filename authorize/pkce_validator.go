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

	"github.com/opentrusty/oidc-core/model"
)

// plainMethod is the PKCE code_challenge_method literal "plain". Matching
// against it is an exact, case-sensitive comparison per RFC 7636 §4.3.
const plainMethod = "plain"

// PkceValidator enforces PKCE (RFC 7636) at the authorization endpoint.
// A present code_challenge with method exactly "plain" is rejected when
// the client disallows plain PKCE. A missing code_challenge_method
// defaults to "plain" at code exchange per RFC 7636 §4.3; here it is
// only recorded, not checked against plain_pkce_allowed. A missing/empty
// code_challenge is rejected unless the client has explicitly disabled
// the PKCE requirement.
//
// Purpose: Enforces proof-key binding between the authorization request and the token exchange.
// Domain: OAuth2
type PkceValidator struct{}

// Validate implements ContextValidator.
func (v *PkceValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	info := vctx.ClientInfo()
	challenge := vctx.Request.CodeChallenge

	if challenge != "" {
		method := vctx.Request.CodeChallengeMethod
		if method == plainMethod && !info.PlainPKCEAllowed {
			return &model.RequestError{
				Code:         "invalid_request",
				Description:  "code_challenge_method plain is not allowed for this client",
				RedirectURI:  vctx.ValidRedirectURI,
				ResponseMode: vctx.ResponseMode,
			}
		}
		vctx.CodeChallenge = challenge
		vctx.CodeChallengeMethod = method
		return nil
	}

	if info.RequiresPKCE() {
		return &model.RequestError{
			Code:         "invalid_request",
			Description:  "code_challenge is required for this client",
			RedirectURI:  vctx.ValidRedirectURI,
			ResponseMode: vctx.ResponseMode,
		}
	}
	return nil
}
