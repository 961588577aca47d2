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

// NonceValidator requires a non-empty nonce whenever response_type
// contains the exact literal "id_token" (exact, not the case-insensitive
// HasFlag matcher FlowTypeValidator uses). Nonce is treated as an opaque
// string: only the empty string fails the check; whitespace-only passes.
//
// Purpose: Enforces OIDC's nonce-required-for-id_token rule.
// Domain: OIDC
type NonceValidator struct{}

// Validate implements ContextValidator.
func (v *NonceValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	requiresNonce := false
	for _, t := range vctx.Request.ResponseType {
		if t == model.ResponseTypeIDToken {
			requiresNonce = true
			break
		}
	}
	if !requiresNonce {
		return nil
	}
	if vctx.Request.Nonce == "" {
		return &model.RequestError{
			Code:         "invalid_request",
			Description:  "nonce is required when response_type includes id_token",
			RedirectURI:  vctx.ValidRedirectURI,
			ResponseMode: vctx.ResponseMode,
		}
	}
	return nil
}
