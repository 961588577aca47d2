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

package model

// FlowType classifies the authorization request by the response_type it
// carries.
//
// Purpose: Discriminator driving issuance logic in the processor.
// Domain: OAuth2
type FlowType string

const (
	FlowTypeUnknown           FlowType = ""
	FlowTypeAuthorizationCode FlowType = "authorization_code"
	FlowTypeImplicit          FlowType = "implicit"
	FlowTypeHybrid            FlowType = "hybrid"
)

// ResponseMode is how the authorization response is delivered.
//
// Purpose: Delivery mechanism selector for the authorization response.
// Domain: OAuth2
type ResponseMode string

const (
	ResponseModeUnset    ResponseMode = ""
	ResponseModeQuery    ResponseMode = "query"
	ResponseModeFragment ResponseMode = "fragment"
	ResponseModeFormPost ResponseMode = "form_post"
)

// Response type token literals recognized by the flow/response-mode
// validators.
const (
	ResponseTypeCode    = "code"
	ResponseTypeIDToken = "id_token"
	ResponseTypeToken   = "token"
)

// DefaultResponseModeFor returns the response_mode the FlowTypeValidator
// assigns before ResponseModeValidator has a chance to honor an explicit
// request value.
func DefaultResponseModeFor(ft FlowType) ResponseMode {
	if ft == FlowTypeAuthorizationCode {
		return ResponseModeQuery
	}
	return ResponseModeFragment
}

// ResponseModeAllowed reports whether mode is a valid delivery mechanism
// for the given flow type: tokens must never be delivered via "query".
func ResponseModeAllowed(ft FlowType, mode ResponseMode) bool {
	switch mode {
	case ResponseModeFragment, ResponseModeFormPost:
		return true
	case ResponseModeQuery:
		return ft == FlowTypeAuthorizationCode
	default:
		return false
	}
}
