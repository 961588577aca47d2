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

// ResourceValidator resolves each requested resource indicator URI
// (RFC 8707) through the ResourceManager and populates ctx.Resources.
// Any unresolved resource is invalid_target. An absent or
// empty resource list is accepted silently. It runs last, after
// ScopeValidator (which resolves the same resource URIs itself for its
// own unknown-scope fallback, since it runs first).
//
// Purpose: Resolves and authorizes the requested resource indicator set.
// Domain: OAuth2
type ResourceValidator struct {
	Resources ResourceManager
}

// Validate implements ContextValidator.
func (v *ResourceValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	resolved := make([]model.ResourceDefinition, 0, len(vctx.Request.Resources))
	for _, uri := range vctx.Request.Resources {
		def, ok := v.Resources.TryGet(ctx, uri)
		if !ok {
			return &model.RequestError{
				Code:         "invalid_target",
				Description:  "resource \"" + uri + "\" is not recognized",
				RedirectURI:  vctx.ValidRedirectURI,
				ResponseMode: vctx.ResponseMode,
			}
		}
		resolved = append(resolved, def)
	}

	vctx.Resources = resolved
	return nil
}
