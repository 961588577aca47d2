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

// ClientValidator resolves request.client_id and populates
// ctx.SetClientInfo. It must run first: every later validator that
// reads ctx.ClientInfo() depends on it having succeeded.
//
// Purpose: First pipeline stage; establishes which client is making the request.
// Domain: OAuth2
type ClientValidator struct {
	Clients  ClientInfoProvider
	TenantID string
}

// Validate implements ContextValidator.
func (v *ClientValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	clientID := vctx.Request.ClientID
	if clientID == "" {
		return model.NewUnauthorizedRequestError("unauthorized_client", "client_id is required")
	}

	info, err := v.Clients.GetClientByClientID(ctx, v.TenantID, clientID)
	if err != nil || info == nil {
		return model.NewUnauthorizedRequestError("unauthorized_client", "client is not registered")
	}

	vctx.SetClientInfo(info)
	return nil
}
