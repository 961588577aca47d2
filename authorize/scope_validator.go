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

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/model"
)

// ScopeValidator resolves every requested scope through the ScopeManager,
// falling back to each requested resource's own scope set. It runs
// before ResourceValidator, so the fallback resolves each
// requested resource URI itself rather than reading ctx.Resources.
// offline_access is checked first (it requires a non-Implicit flow and
// an offline-access-enabled client) so that diagnostic precedes "unknown
// scope" for any other bad scope in the same request. Resolved scopes
// preserve request order and may repeat; an empty scope list is accepted.
//
// Purpose: Resolves and authorizes the requested scope set.
// Domain: OIDC
type ScopeValidator struct {
	Scopes    ScopeManager
	Resources ResourceManager
}

// Validate implements ContextValidator.
func (v *ScopeValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	if requestErr := checkOfflineAccess(vctx); requestErr != nil {
		return requestErr
	}

	resolved := make([]model.ScopeDefinition, 0, len(vctx.Request.Scope))
	for _, name := range vctx.Request.Scope {
		def, ok := v.Scopes.Resolve(ctx, name)
		if !ok {
			ok = v.resolveFromResources(ctx, vctx, name, &def)
		}
		if !ok {
			return &model.RequestError{
				Code:         "invalid_scope",
				Description:  "scope \"" + name + "\" is not recognized",
				RedirectURI:  vctx.ValidRedirectURI,
				ResponseMode: vctx.ResponseMode,
			}
		}
		resolved = append(resolved, def)
	}

	vctx.Scopes = resolved
	return nil
}

func checkOfflineAccess(vctx *model.AuthorizationValidationContext) *model.RequestError {
	hasOfflineAccess := false
	for _, s := range vctx.Request.Scope {
		if s == client.ScopeOfflineAccess {
			hasOfflineAccess = true
			break
		}
	}
	if !hasOfflineAccess {
		return nil
	}

	info := vctx.ClientInfo()
	if vctx.FlowType() == model.FlowTypeImplicit || !info.AllowsOfflineAccess() {
		return &model.RequestError{
			Code:         "invalid_scope",
			Description:  "offline_access requires a non-implicit flow and an offline-access-enabled client",
			RedirectURI:  vctx.ValidRedirectURI,
			ResponseMode: vctx.ResponseMode,
		}
	}
	return nil
}

// resolveFromResources checks whether name is in the scope set of any
// requested resource, resolving each one through ResourceManager itself;
// ResourceValidator hasn't run yet, so ctx.Resources is not yet populated.
func (v *ScopeValidator) resolveFromResources(ctx context.Context, vctx *model.AuthorizationValidationContext, name string, def *model.ScopeDefinition) bool {
	if v.Resources == nil {
		return false
	}
	for _, uri := range vctx.Request.Resources {
		resource, ok := v.Resources.TryGet(ctx, uri)
		if !ok {
			continue
		}
		for _, s := range resource.Scopes {
			if s == name {
				*def = model.ScopeDefinition{Name: name}
				return true
			}
		}
	}
	return false
}
