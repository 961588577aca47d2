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

// Fetcher resolves the plain AuthorizationRequest the validator chain
// runs against, dereferencing a PAR request_uri (RFC 9126) or a JAR
// request object (RFC 9101) when either is present. A request carrying
// neither passes through unchanged.
//
// Purpose: Normalizes a raw authorization request into its plain, validatable form.
// Domain: OAuth2
type Fetcher struct {
	Par            ParStore
	RequestObjects RequestObjectValidator
	TenantID       string
}

// Fetch dereferences raw into the request the validator chain should run
// against. A pushed request_uri takes priority; if both request_uri and a
// request object are present, request_uri wins and the request object is
// ignored, matching RFC 9126's "request_uri may itself carry a request
// object" composition without trying to support both at once.
func (f *Fetcher) Fetch(ctx context.Context, raw *model.AuthorizationRequest) (*model.AuthorizationRequest, *model.RequestError) {
	if raw.RequestURI != "" {
		return f.fetchPushed(ctx, raw)
	}
	if raw.Request != "" {
		return f.fetchRequestObject(ctx, raw)
	}
	return raw, nil
}

func (f *Fetcher) fetchPushed(ctx context.Context, raw *model.AuthorizationRequest) (*model.AuthorizationRequest, *model.RequestError) {
	stored, err := f.Par.TryGet(ctx, raw.RequestURI, true)
	if err != nil || stored == nil {
		return nil, model.NewUnauthorizedRequestError("invalid_request_uri", "request_uri is unknown, consumed, or expired")
	}
	if raw.ClientID != "" && stored.ClientID != "" && raw.ClientID != stored.ClientID {
		return nil, model.NewUnauthorizedRequestError("invalid_request_uri", "client_id does not match the pushed request")
	}
	return stored, nil
}

func (f *Fetcher) fetchRequestObject(ctx context.Context, raw *model.AuthorizationRequest) (*model.AuthorizationRequest, *model.RequestError) {
	if raw.ClientID == "" {
		return nil, model.NewUnauthorizedRequestError("invalid_request_object", "client_id is required alongside a request object")
	}

	claims, err := f.RequestObjects.ValidateRequestObject(ctx, f.TenantID, raw.ClientID, raw.Request)
	if err != nil {
		return nil, model.NewUnauthorizedRequestError("invalid_request_object", "request object failed validation")
	}

	merged := *raw
	merged.Request = ""
	overlayRequestClaims(&merged, claims)
	return &merged, nil
}

// overlayRequestClaims writes every recognized claim in claims onto req,
// overriding whatever the front-channel query string carried for the same
// field: the signed request object is authoritative over the envelope it
// rode in on.
func overlayRequestClaims(req *model.AuthorizationRequest, claims map[string]any) {
	if v, ok := claims["client_id"].(string); ok && v != "" {
		req.ClientID = v
	}
	if v, ok := claims["redirect_uri"].(string); ok {
		req.RedirectURI = v
	}
	if v, ok := claims["state"].(string); ok {
		req.State = v
	}
	if v, ok := claims["response_mode"].(string); ok {
		req.ResponseMode = v
	}
	if v, ok := claims["nonce"].(string); ok {
		req.Nonce = v
	}
	if v, ok := claims["prompt"].(string); ok {
		req.Prompt = v
	}
	if v, ok := claims["display"].(string); ok {
		req.Display = v
	}
	if v, ok := claims["ui_locales"].(string); ok {
		req.UILocales = v
	}
	if v, ok := claims["claims_locales"].(string); ok {
		req.ClaimsLocales = v
	}
	if v, ok := claims["id_token_hint"].(string); ok {
		req.IDTokenHint = v
	}
	if v, ok := claims["login_hint"].(string); ok {
		req.LoginHint = v
	}
	if v, ok := claims["acr_values"].(string); ok {
		req.ACRValues = v
	}
	if v, ok := claims["code_challenge"].(string); ok {
		req.CodeChallenge = v
	}
	if v, ok := claims["code_challenge_method"].(string); ok {
		req.CodeChallengeMethod = v
	}
	if v, ok := claims["response_type"]; ok {
		req.ResponseType = stringSliceClaim(v)
	}
	if v, ok := claims["scope"]; ok {
		req.Scope = stringSliceClaim(v)
	}
	if v, ok := claims["resource"]; ok {
		req.Resources = stringSliceClaim(v)
	}
	if v, ok := claims["claims"].(map[string]any); ok {
		req.Claims = v
	}
}

// stringSliceClaim normalizes a JSON-decoded claim value into a []string:
// a JSON array decodes as []any, and OAuth2's "space-delimited string"
// convention (scope, response_type) may also arrive as a single string.
func stringSliceClaim(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitSpace(vv)
	default:
		return nil
	}
}

func splitSpace(s string) []string {
	var out []string
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if start != -1 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		out = append(out, s[start:])
	}
	return out
}
