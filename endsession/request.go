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

// Package endsession implements the RP-initiated logout pipeline: id_token
// hint validation, post_logout_redirect_uri validation, session teardown,
// and front/back-channel logout notification fan-out to every client the
// session touched.
package endsession

import (
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/client"
)

// Request is the raw inbound end-session request (OIDC RP-Initiated
// Logout 1.0 §2).
type Request struct {
	IDTokenHint          string
	ClientID             string
	PostLogoutRedirectURI string
	State                string
	LogoutHint           string
	UILocales            string
}

// ValidationContext accumulates the state the end-session validator chain
// produces: the parsed id_token_hint (if any) and the resolved
// ClientInfo. Both are optional (a bare logout request may carry
// neither) so, unlike the authorization pipeline's write-once fields,
// these are plain nil-checked fields rather than sealed accessors.
type ValidationContext struct {
	Request *Request

	IDTokenHint jwt.Token
	ClientInfo  *client.ClientInfo

	EffectiveClientID string
}

// NewValidationContext seeds a ValidationContext for req.
func NewValidationContext(req *Request) *ValidationContext {
	return &ValidationContext{Request: req, EffectiveClientID: req.ClientID}
}

// RequestError is the end-session pipeline's client-visible error, the
// same shape as the authorization pipeline's.
type RequestError struct {
	Code        string
	Description string
}

func (e *RequestError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func newError(code, description string) *RequestError {
	return &RequestError{Code: code, Description: description}
}
