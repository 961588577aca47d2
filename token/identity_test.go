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

package token

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/jwx/v3/jwa"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/model"
)

// fakeClaims records the scope it was asked for and returns a fixed
// claim set, or nil to simulate an unknown/denied user.
type fakeClaims struct {
	lastScope []string
	claims    map[string]any
}

func (f *fakeClaims) UserClaims(_ context.Context, _ *AuthSession, scope []string, _ map[string]any, _ *client.ClientInfo) (map[string]any, error) {
	f.lastScope = scope
	return f.claims, nil
}

func identityClient() *client.ClientInfo {
	return &client.ClientInfo{
		ClientID:               "client1",
		IdentityTokenExpiresIn: 10 * time.Minute,
	}
}

func TestIdentityTokenHashesTrackPresentArtifacts(t *testing.T) {
	formatter := newFakeFormatter(t)
	claims := &fakeClaims{claims: map[string]any{"sub": "user1"}}
	svc := NewIdentityTokenService(formatter, StaticIssuer("https://issuer.example"), claims, clockwork.NewFakeClock())

	authCtx := model.AuthorizationContext{ClientID: "client1", Nonce: "n1", SessionID: "sess1"}
	session := AuthSession{Subject: "user1"}

	// Code and access token present: both hashes appear, with the values
	// the left-half-hash recipe produces for RS256.
	raw, err := svc.Issue(context.Background(), identityClient(), authCtx, session, IssueOptions{
		AuthorizationCode: "code-1",
		AccessToken:       "at-1",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	tok := formatter.parse(t, raw)
	var cHash, atHash string
	if err := tok.Get("c_hash", &cHash); err != nil || cHash != leftHalfHash(jwa.RS256(), "code-1") {
		t.Errorf("c_hash = %q (%v), want the RS256 left-half hash of the code", cHash, err)
	}
	if err := tok.Get("at_hash", &atHash); err != nil || atHash != leftHalfHash(jwa.RS256(), "at-1") {
		t.Errorf("at_hash = %q (%v), want the RS256 left-half hash of the access token", atHash, err)
	}
	var nonce string
	if err := tok.Get("nonce", &nonce); err != nil || nonce != "n1" {
		t.Errorf("nonce = %q (%v), want n1", nonce, err)
	}
	aud, _ := tok.Audience()
	if len(aud) != 1 || aud[0] != "client1" {
		t.Errorf("aud = %v, want [client1]", aud)
	}

	// Neither artifact present: neither hash appears.
	raw, err = svc.Issue(context.Background(), identityClient(), authCtx, session, IssueOptions{})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	tok = formatter.parse(t, raw)
	if tok.Has("c_hash") || tok.Has("at_hash") {
		t.Error("c_hash/at_hash present on a token issued with no code and no access token")
	}
}

func TestIdentityTokenNilClaimsMeansNoToken(t *testing.T) {
	formatter := newFakeFormatter(t)
	svc := NewIdentityTokenService(formatter, StaticIssuer("https://issuer.example"), &fakeClaims{claims: nil}, clockwork.NewFakeClock())

	raw, err := svc.Issue(context.Background(), identityClient(), model.AuthorizationContext{ClientID: "client1"}, AuthSession{Subject: "ghost"}, IssueOptions{})
	if err != nil {
		t.Fatalf("Issue() error = %v, want nil for an unknown user", err)
	}
	if raw != "" {
		t.Errorf("Issue() = %q, want empty token for an unknown user", raw)
	}
}

func TestIdentityTokenStripsProfileScopesWithoutUserClaims(t *testing.T) {
	formatter := newFakeFormatter(t)
	claims := &fakeClaims{claims: map[string]any{"sub": "user1"}}
	svc := NewIdentityTokenService(formatter, StaticIssuer("https://issuer.example"), claims, clockwork.NewFakeClock())

	authCtx := model.AuthorizationContext{
		ClientID: "client1",
		Scope:    []string{"openid", "profile", "email", "address", "custom"},
	}

	// Calling context carries no user claims and the client doesn't force
	// them: profile/email/address are stripped before the claims provider
	// sees the scope.
	if _, err := svc.Issue(context.Background(), identityClient(), authCtx, AuthSession{Subject: "user1"}, IssueOptions{IncludesUserClaims: false}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if want := []string{"openid", "custom"}; !equalStrings(claims.lastScope, want) {
		t.Errorf("claims provider scope = %v, want %v", claims.lastScope, want)
	}

	// With user claims in the calling context the scope passes untouched.
	if _, err := svc.Issue(context.Background(), identityClient(), authCtx, AuthSession{Subject: "user1"}, IssueOptions{IncludesUserClaims: true}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(claims.lastScope) != 5 {
		t.Errorf("claims provider scope = %v, want the full request scope", claims.lastScope)
	}

	// ForceUserClaimsInIdentityToken overrides the stripping as well.
	forced := identityClient()
	forced.ForceUserClaimsInIdentityToken = true
	if _, err := svc.Issue(context.Background(), forced, authCtx, AuthSession{Subject: "user1"}, IssueOptions{IncludesUserClaims: false}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(claims.lastScope) != 5 {
		t.Errorf("claims provider scope = %v, want the full request scope when forced", claims.lastScope)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
