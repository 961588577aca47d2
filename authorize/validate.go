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

// Chain is the ordered validator chain: client, redirect_uri, flow_type,
// response_mode, nonce, PKCE, scope, resource.
// Each validator relies on exactly the side effects the ones before it in
// this slice have produced; reordering it is a programming error, not a
// configuration choice, so NewChain is the only supported constructor.
type Chain []ContextValidator

// NewChain builds the canonical eight-validator chain.
func NewChain(clients ClientInfoProvider, tenantID string, scopes ScopeManager, resources ResourceManager) Chain {
	return Chain{
		&ClientValidator{Clients: clients, TenantID: tenantID},
		&RedirectUriValidator{},
		&FlowTypeValidator{},
		&ResponseModeValidator{},
		&NonceValidator{},
		&PkceValidator{},
		&ScopeValidator{Scopes: scopes, Resources: resources},
		&ResourceValidator{Resources: resources},
	}
}

// Validate runs every validator in the chain in order against vctx,
// stopping at and returning the first *model.RequestError. A nil return
// means every validator passed.
func (c Chain) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	for _, v := range c {
		if requestErr := v.Validate(ctx, vctx); requestErr != nil {
			return requestErr
		}
	}
	return nil
}
