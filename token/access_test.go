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
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/model"
)

func accessClient() *client.ClientInfo {
	return &client.ClientInfo{
		ClientID:             "client1",
		AccessTokenExpiresIn: time.Hour,
	}
}

func TestAccessTokenSelfAudienceWithoutResources(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	formatter := newFakeFormatter(t)
	svc := NewAccessTokenService(formatter, StaticIssuer("https://issuer.example"), staticIDGen{"jti1"}, clock)

	session := AuthSession{
		Subject:            "user1",
		SessionID:          "sess1",
		AuthenticationTime: clock.Now().Add(-time.Minute),
		AdditionalClaims:   map[string]any{"department": "engineering"},
	}
	raw, jti, expiresIn, err := svc.Issue(context.Background(), accessClient(), model.AuthorizationContext{
		ClientID: "client1",
		Scope:    []string{"openid", "profile"},
	}, session)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if jti != "jti1" {
		t.Errorf("jti = %q, want jti1", jti)
	}
	if expiresIn != 3600 {
		t.Errorf("expiresIn = %d, want 3600", expiresIn)
	}

	tok := formatter.parse(t, raw)
	aud, _ := tok.Audience()
	if len(aud) != 1 || aud[0] != "client1" {
		t.Errorf("aud = %v, want the self-audience [client1]", aud)
	}
	var dept string
	if err := tok.Get("department", &dept); err != nil || dept != "engineering" {
		t.Errorf("department claim = %q (%v), want engineering (session additional claims merged at top level)", dept, err)
	}
	exp, _ := tok.Expiration()
	if want := clock.Now().Add(time.Hour); !exp.Equal(want) {
		t.Errorf("exp = %v, want %v", exp, want)
	}
}

func TestAccessTokenAudienceFromResources(t *testing.T) {
	formatter := newFakeFormatter(t)
	svc := NewAccessTokenService(formatter, StaticIssuer("https://issuer.example"), staticIDGen{"jti1"}, clockwork.NewFakeClock())

	raw, _, _, err := svc.Issue(context.Background(), accessClient(), model.AuthorizationContext{
		ClientID:  "client1",
		Resources: []string{"https://api.example", "https://other.example"},
	}, AuthSession{Subject: "user1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tok := formatter.parse(t, raw)
	aud, _ := tok.Audience()
	if len(aud) != 2 || aud[0] != "https://api.example" || aud[1] != "https://other.example" {
		t.Errorf("aud = %v, want the requested resources", aud)
	}
}

func TestReAuthenticateSelfAudienceYieldsNilResources(t *testing.T) {
	tok, err := jwt.NewBuilder().
		Subject("user1").
		Audience([]string{"client1"}).
		Claim("sid", "sess1").
		Claim("client_id", "client1").
		Claim("scope", []string{"openid"}).
		Claim("idp", "local").
		Claim("department", "engineering").
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	session, authCtx := ReAuthenticate(tok)
	if session.Subject != "user1" || session.SessionID != "sess1" {
		t.Errorf("session = %+v, want subject/sid reconstructed", session)
	}
	if session.IdentityProvider != "local" {
		t.Errorf("IdentityProvider = %q, want local", session.IdentityProvider)
	}
	if authCtx.Resources != nil {
		t.Errorf("Resources = %v, want nil for the self-audience [client_id]", authCtx.Resources)
	}
	if dept, ok := session.AdditionalClaims["department"]; !ok || dept != "engineering" {
		t.Errorf("AdditionalClaims = %v, want custom claims carried back", session.AdditionalClaims)
	}
}

func TestReAuthenticateResourceAudienceSurvives(t *testing.T) {
	tok, err := jwt.NewBuilder().
		Subject("user1").
		Audience([]string{"https://api.example"}).
		Claim("client_id", "client1").
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	_, authCtx := ReAuthenticate(tok)
	if len(authCtx.Resources) != 1 || authCtx.Resources[0] != "https://api.example" {
		t.Errorf("Resources = %v, want the non-self audience preserved", authCtx.Resources)
	}
}
