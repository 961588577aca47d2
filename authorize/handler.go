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
	"github.com/opentrusty/oidc-core/token"
)

// Handler binds Fetch, Validate, and Process into the single entry point
// an authorization endpoint calls. A *model.RequestError coming back from
// any stage already carries the delivery guidance (Unauthorized, the
// resolved redirect_uri/response_mode where known) the caller needs to
// render it correctly.
//
// Purpose: Top-level orchestration for one authorization request.
// Domain: OAuth2
type Handler struct {
	Fetcher   *Fetcher
	Validator Chain
	Processor *Processor
}

// Handle runs Fetch, then Validate, then Process for raw, authorized
// under session.
func (h *Handler) Handle(ctx context.Context, raw *model.AuthorizationRequest, session token.AuthSession) (*model.AuthorizedGrant, *model.RequestError) {
	req, requestErr := h.Fetcher.Fetch(ctx, raw)
	if requestErr != nil {
		return nil, requestErr
	}

	vctx := model.NewAuthorizationValidationContext(req)
	if requestErr := h.Validator.Validate(ctx, vctx); requestErr != nil {
		return nil, requestErr
	}

	return h.Processor.Process(ctx, vctx, session)
}
