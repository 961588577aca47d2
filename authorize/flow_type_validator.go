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
	"strings"

	"github.com/opentrusty/oidc-core/model"
)

// FlowTypeValidator deduplicates response_type (case-insensitively) and
// classifies the request into a FlowType. On success it unconditionally
// sets ctx.ResponseMode to the flow's default, even over an explicit
// value the request carried. ResponseModeValidator, which runs next, is
// the only stage allowed to re-apply the requested value.
//
// Purpose: Classifies the request's flow and assigns the provisional response_mode default.
// Domain: OAuth2
type FlowTypeValidator struct{}

// Validate implements ContextValidator.
func (v *FlowTypeValidator) Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError {
	deduped := model.DedupResponseTypes(vctx.Request.ResponseType)

	flowType, ok := classify(deduped)
	if !ok {
		return &model.RequestError{
			Code:         "unsupported_response_type",
			Description:  "response_type is missing, empty, or unrecognized",
			RedirectURI:  vctx.ValidRedirectURI,
			ResponseMode: model.ResponseModeQuery,
		}
	}

	if !vctx.ClientInfo().SupportsResponseTypes(deduped) {
		return &model.RequestError{
			Code:         "unsupported_response_type",
			Description:  "client is not registered for this response_type combination",
			RedirectURI:  vctx.ValidRedirectURI,
			ResponseMode: model.ResponseModeQuery,
		}
	}

	vctx.SetFlowType(flowType)
	vctx.ResponseMode = model.DefaultResponseModeFor(flowType)
	return nil
}

// classify maps a deduplicated response_type set to its FlowType:
// {code} -> AuthorizationCode; any non-empty subset of
// {id_token, token} without code -> Implicit; code plus at least one of
// {id_token, token} -> Hybrid.
func classify(types []string) (model.FlowType, bool) {
	if len(types) == 0 {
		return model.FlowTypeUnknown, false
	}

	hasCode, hasIDToken, hasToken := false, false, false
	for _, t := range types {
		switch {
		case strings.EqualFold(t, model.ResponseTypeCode):
			hasCode = true
		case strings.EqualFold(t, model.ResponseTypeIDToken):
			hasIDToken = true
		case strings.EqualFold(t, model.ResponseTypeToken):
			hasToken = true
		default:
			return model.FlowTypeUnknown, false
		}
	}

	switch {
	case hasCode && (hasIDToken || hasToken):
		return model.FlowTypeHybrid, true
	case hasCode:
		return model.FlowTypeAuthorizationCode, true
	case hasIDToken || hasToken:
		return model.FlowTypeImplicit, true
	default:
		return model.FlowTypeUnknown, false
	}
}
