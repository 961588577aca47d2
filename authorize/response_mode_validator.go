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

// ResponseModeValidator honors an explicit request.response_mode,
// overriding FlowTypeValidator's default, but only if the value is one
// of {query, fragment, form_post} and is compatible with the resolved
// flow type (query is forbidden whenever a token/id_token would be
// carried in the response). Matching is case-sensitive; a value like
// "jwt", or a whitespace-only value, is rejected outright. Only a
// truly empty response_mode preserves FlowTypeValidator's default.
//
// Purpose: Honors an explicit, flow-compatible response_mode request.
// Domain: OAuth2
type ResponseModeValidator struct{}

var validResponseModes = map[string]model.ResponseMode{
	"query":     model.ResponseModeQuery,
	"fragment":  model.ResponseModeFragment,
	"form_post": model.ResponseModeFormPost,
}

// Validate implements ContextValidator.
func (v *ResponseModeValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	requested := vctx.Request.ResponseMode
	if requested == "" {
		return nil
	}

	mode, known := validResponseModes[requested]
	if !known || !model.ResponseModeAllowed(vctx.FlowType(), mode) {
		slog.WarnContext(ctx, "ResponseModeValidator: response_mode incompatible with flow_type",
			"response_mode", requested, "flow_type", vctx.FlowType())
		return &model.RequestError{
			Code:         "invalid_request",
			Description:  "response_mode is not valid for this response_type",
			RedirectURI:  vctx.ValidRedirectURI,
			ResponseMode: vctx.ResponseMode,
		}
	}

	vctx.ResponseMode = mode
	return nil
}
