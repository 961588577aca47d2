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
	"testing"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/model"
)

type mockClients struct {
	byID map[string]*client.ClientInfo
}

func (m *mockClients) GetClientByClientID(ctx context.Context, tenantID, clientID string) (*client.ClientInfo, error) {
	info, ok := m.byID[clientID]
	if !ok {
		return nil, client.ErrClientNotFound
	}
	return info, nil
}

type mockScopes struct {
	known map[string]model.ScopeDefinition
}

func (m *mockScopes) Resolve(ctx context.Context, name string) (model.ScopeDefinition, bool) {
	def, ok := m.known[name]
	return def, ok
}

type mockResources struct {
	known map[string]model.ResourceDefinition
}

func (m *mockResources) TryGet(ctx context.Context, identifier string) (model.ResourceDefinition, bool) {
	def, ok := m.known[identifier]
	return def, ok
}

func defaultClient() *client.ClientInfo {
	f := false
	return &client.ClientInfo{
		ClientID:      "client1",
		RedirectURIs:  []string{"https://rp.example/cb"},
		AllowedResponseTypes: []client.ResponseTypeSet{
			{"code"},
			{"code", "id_token"},
			{"id_token"},
			{"token"},
			{"id_token", "token"},
		},
		PKCERequired:     &f,
		PlainPKCEAllowed: false,
	}
}

func newChain(c *client.ClientInfo) Chain {
	clients := &mockClients{byID: map[string]*client.ClientInfo{c.ClientID: c}}
	scopes := &mockScopes{known: map[string]model.ScopeDefinition{
		"openid":         {Name: "openid"},
		"profile":        {Name: "profile"},
		"offline_access": {Name: "offline_access"},
	}}
	resources := &mockResources{known: map[string]model.ResourceDefinition{}}
	return NewChain(clients, "", scopes, resources)
}

func baseRequest() *model.AuthorizationRequest {
	return &model.AuthorizationRequest{
		ClientID:     "client1",
		ResponseType: []string{"code"},
		RedirectURI:  "https://rp.example/cb",
		Scope:        []string{"openid"},
	}
}

// Happy path: plain code flow.
func TestChain_HappyPathCodeFlow(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)
	req := baseRequest()
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if vctx.FlowType() != model.FlowTypeAuthorizationCode {
		t.Errorf("FlowType = %v, want AuthorizationCode", vctx.FlowType())
	}
	if vctx.ResponseMode != model.ResponseModeQuery {
		t.Errorf("ResponseMode = %v, want query", vctx.ResponseMode)
	}
	if vctx.ValidRedirectURI != req.RedirectURI {
		t.Errorf("ValidRedirectURI = %q, want %q", vctx.ValidRedirectURI, req.RedirectURI)
	}
}

// RequestedClaims is seeded from req.Claims at context construction, not
// populated by any validator. Regression test for the dead-plumbing bug
// where vctx.RequestedClaims stayed nil regardless of what a client sent
// in claims=... and was never forwarded to the claims provider.
func TestChain_RequestedClaimsSeededFromRequest(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)
	req := baseRequest()
	req.Claims = map[string]any{"id_token": map[string]any{"email": nil}}
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if vctx.RequestedClaims == nil {
		t.Fatal("RequestedClaims = nil, want req.Claims carried through")
	}
	if _, ok := vctx.RequestedClaims["id_token"]; !ok {
		t.Errorf("RequestedClaims = %v, want it to contain the requested \"id_token\" claims", vctx.RequestedClaims)
	}
}

// A plain code_challenge_method must be blocked for clients that
// disallow plain PKCE.
func TestChain_PkcePlainDowngradeBlocked(t *testing.T) {
	c := defaultClient()
	f := false
	c.PKCERequired = &f
	c.PlainPKCEAllowed = false
	chain := newChain(c)

	req := baseRequest()
	req.CodeChallenge = "test"
	req.CodeChallengeMethod = "plain"
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil {
		t.Fatal("Validate() = nil, want invalid_request")
	}
	if err.Code != "invalid_request" {
		t.Errorf("Code = %q, want invalid_request", err.Code)
	}
	if !strings.Contains(err.Description, "plain") {
		t.Errorf("Description = %q, want it to mention plain", err.Description)
	}
}

// Hybrid flow with id_token requires a nonce.
func TestChain_MissingNonceInHybrid(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.ResponseType = []string{"code", "id_token"}
	req.Nonce = ""
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil {
		t.Fatal("Validate() = nil, want invalid_request")
	}
	if err.Code != "invalid_request" {
		t.Errorf("Code = %q, want invalid_request", err.Code)
	}
	if !strings.Contains(err.Description, "nonce") || !strings.Contains(err.Description, "id_token") {
		t.Errorf("Description = %q, want it to mention nonce and id_token", err.Description)
	}
}

// response_mode=query must be rejected when tokens would appear in the
// response.
func TestChain_QueryForbiddenWithImplicit(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.ResponseType = []string{"id_token"}
	req.ResponseMode = "query"
	req.Nonce = "n1"
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil {
		t.Fatal("Validate() = nil, want invalid_request from ResponseModeValidator")
	}
	if err.Code != "invalid_request" {
		t.Errorf("Code = %q, want invalid_request", err.Code)
	}
}

func TestChain_UnknownClient(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.ClientID = "does-not-exist"
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "unauthorized_client" {
		t.Fatalf("Validate() = %v, want unauthorized_client", err)
	}
	if !err.Unauthorized {
		t.Error("Unauthorized = false, want true (no redirect_uri established yet)")
	}
}

func TestChain_RedirectUriMismatch(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.RedirectURI = "https://evil.example/cb"
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "invalid_request" {
		t.Fatalf("Validate() = %v, want invalid_request", err)
	}
}

func TestChain_UnsupportedResponseType(t *testing.T) {
	c := defaultClient()
	c.AllowedResponseTypes = []client.ResponseTypeSet{{"code"}}
	chain := newChain(c)

	req := baseRequest()
	req.ResponseType = []string{"token"}
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "unsupported_response_type" {
		t.Fatalf("Validate() = %v, want unsupported_response_type", err)
	}
	if err.ResponseMode != model.ResponseModeQuery {
		t.Errorf("ResponseMode = %v, want query fallback", err.ResponseMode)
	}
}

func TestChain_OfflineAccessDeniedOnImplicit(t *testing.T) {
	c := defaultClient()
	allow := true
	c.OfflineAccessAllowed = &allow
	chain := newChain(c)

	req := baseRequest()
	req.ResponseType = []string{"token"}
	req.Scope = []string{"openid", "offline_access"}
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "invalid_scope" {
		t.Fatalf("Validate() = %v, want invalid_scope", err)
	}
}

func TestChain_OfflineAccessDeniedWhenClientDisallows(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.Scope = []string{"openid", "offline_access"}
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "invalid_scope" {
		t.Fatalf("Validate() = %v, want invalid_scope (offline_access not allowed)", err)
	}
}

func TestChain_OfflineAccessAllowed(t *testing.T) {
	c := defaultClient()
	allow := true
	c.OfflineAccessAllowed = &allow
	chain := newChain(c)

	req := baseRequest()
	req.Scope = []string{"openid", "offline_access"}
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestChain_UnknownScope(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.Scope = []string{"openid", "bogus"}
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "invalid_scope" {
		t.Fatalf("Validate() = %v, want invalid_scope", err)
	}
}

func TestChain_UnknownResource(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.Resources = []string{"https://api.example/unknown"}
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "invalid_target" {
		t.Fatalf("Validate() = %v, want invalid_target", err)
	}
}

// PkceValidator's absent-method/plain_pkce_allowed asymmetry: a missing
// code_challenge_method defaults to "plain" for PKCE-required purposes
// only, and is never checked against PlainPKCEAllowed.
func TestChain_PkceAbsentMethodNotCheckedAgainstPlainAllowed(t *testing.T) {
	c := defaultClient()
	c.PlainPKCEAllowed = false
	chain := newChain(c)

	req := baseRequest()
	req.CodeChallenge = "challenge-value"
	req.CodeChallengeMethod = ""
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil (absent method is permissive)", err)
	}
}

// Uppercase "PLAIN" is not the same literal as "plain" and so passes the
// ban; RFC 7636 method names are case-sensitive.
func TestChain_PkceUppercasePlainPasses(t *testing.T) {
	c := defaultClient()
	c.PlainPKCEAllowed = false
	chain := newChain(c)

	req := baseRequest()
	req.CodeChallenge = "challenge-value"
	req.CodeChallengeMethod = "PLAIN"
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil (case-sensitive match)", err)
	}
}

func TestChain_PkceRequiredMissingChallenge(t *testing.T) {
	c := defaultClient()
	c.PKCERequired = nil // null means required
	chain := newChain(c)

	req := baseRequest()
	vctx := model.NewAuthorizationValidationContext(req)

	err := chain.Validate(context.Background(), vctx)
	if err == nil || err.Code != "invalid_request" {
		t.Fatalf("Validate() = %v, want invalid_request", err)
	}
}

// Whitespace-only nonce/code_challenge are opaque strings that pass.
func TestChain_WhitespaceOnlyNoncePasses(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)

	req := baseRequest()
	req.ResponseType = []string{"id_token"}
	req.Nonce = "   "
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestChain_ResourceScopeFallback(t *testing.T) {
	c := defaultClient()
	chain := newChain(c)
	resources := &mockResources{known: map[string]model.ResourceDefinition{
		"https://api.example": {Identifier: "https://api.example", Scopes: []string{"custom:read"}},
	}}
	chain[6].(*ScopeValidator).Resources = resources
	chain[7].(*ResourceValidator).Resources = resources

	req := baseRequest()
	req.Scope = []string{"openid", "custom:read"}
	req.Resources = []string{"https://api.example"}
	vctx := model.NewAuthorizationValidationContext(req)

	if err := chain.Validate(context.Background(), vctx); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if len(vctx.Scopes) != 2 {
		t.Fatalf("Scopes = %v, want 2 resolved", vctx.Scopes)
	}
}

func TestClientInfoBeforeSetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("ClientInfo() before set did not panic")
		}
	}()
	vctx := model.NewAuthorizationValidationContext(baseRequest())
	_ = vctx.ClientInfo()
}

func TestSetClientInfoTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("SetClientInfo called twice did not panic")
		}
	}()
	vctx := model.NewAuthorizationValidationContext(baseRequest())
	vctx.SetClientInfo(defaultClient())
	vctx.SetClientInfo(defaultClient())
}
