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
	"log/slog"

	"github.com/opentrusty/oidc-core/model"
)

// RedirectUriValidator requires request.redirect_uri to exact-match one
// of ctx.ClientInfo()'s registered redirect_uris (scheme/host
// case-insensitive, path/query case-sensitive, fragment ignored). It
// runs after ClientValidator.
//
// Purpose: Establishes the redirect_uri as trustworthy before any error can be delivered to it.
// Domain: OAuth2
type RedirectUriValidator struct{}

// Validate implements ContextValidator.
func (v *RedirectUriValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	info := vctx.ClientInfo()
	candidate := vctx.Request.RedirectURI

	if candidate == "" || len(info.RedirectURIs) == 0 || !info.ValidateRedirectURI(candidate) {
		slog.WarnContext(ctx, "RedirectUriValidator: redirect_uri mismatch",
			"client_id", info.ClientID, "redirect_uri", candidate)
		return model.NewUnauthorizedRequestError("invalid_request", "redirect_uri is missing or not registered for this client")
	}

	vctx.ValidRedirectURI = candidate
	return nil
}
