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

package clientjwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/jwtkeys"
	"github.com/opentrusty/oidc-core/model"
)

type mockClients struct {
	byID map[string]*client.ClientInfo
}

func (m *mockClients) GetClientByClientID(_ context.Context, _, clientID string) (*client.ClientInfo, error) {
	info, ok := m.byID[clientID]
	if !ok {
		return nil, nil
	}
	return info, nil
}

func newSignedAssertion(t *testing.T, raw *rsa.PrivateKey, issuer, audience string) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{audience}).
		Subject(issuer).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Minute)).
		Build()
	if err != nil {
		t.Fatalf("build assertion: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), raw))
	if err != nil {
		t.Fatalf("sign assertion: %v", err)
	}
	return string(signed)
}

func newClientWithKey(t *testing.T) (*client.ClientInfo, jwk.Set, *rsa.PrivateKey) {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	pub, err := jwk.Import(raw.Public())
	if err != nil {
		t.Fatalf("import public jwk: %v", err)
	}
	if err := pub.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		t.Fatalf("set alg: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatalf("add key: %v", err)
	}
	return &client.ClientInfo{ClientID: "client1"}, set, raw
}

func TestValidatorValidatesKnownIssuer(t *testing.T) {
	info, verificationKeys, raw := newClientWithKey(t)
	keys := jwtkeys.NewRegistry(jwk.NewSet())
	keys.SetClientVerificationKeys(info.ClientID, verificationKeys)
	clients := &mockClients{byID: map[string]*client.ClientInfo{info.ClientID: info}}

	v := New("https://as.example/token", "tenant1", clients, keys)
	raw1 := newSignedAssertion(t, raw, info.ClientID, "https://as.example/token")

	tok, got, err := v.Validate(context.Background(), raw1)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got != info {
		t.Errorf("Validate resolved client = %v, want %v", got, info)
	}
	if iss, _ := tok.Issuer(); iss != info.ClientID {
		t.Errorf("parsed token issuer = %q, want %q", iss, info.ClientID)
	}
}

func TestValidatorUnknownIssuerFails(t *testing.T) {
	_, _, raw := newClientWithKey(t)
	keys := jwtkeys.NewRegistry(jwk.NewSet())
	clients := &mockClients{byID: map[string]*client.ClientInfo{}}

	v := New("https://as.example/token", "tenant1", clients, keys)
	assertion := newSignedAssertion(t, raw, "ghost-client", "https://as.example/token")

	if _, _, err := v.Validate(context.Background(), assertion); err == nil {
		t.Fatal("Validate(unknown issuer) = nil error, want failure")
	}
}

func TestValidatorWrongAudienceFails(t *testing.T) {
	info, verificationKeys, raw := newClientWithKey(t)
	keys := jwtkeys.NewRegistry(jwk.NewSet())
	keys.SetClientVerificationKeys(info.ClientID, verificationKeys)
	clients := &mockClients{byID: map[string]*client.ClientInfo{info.ClientID: info}}

	v := New("https://as.example/token", "tenant1", clients, keys)
	assertion := newSignedAssertion(t, raw, info.ClientID, "https://someone-else.example/")

	if _, _, err := v.Validate(context.Background(), assertion); err == nil {
		t.Fatal("Validate(wrong audience) = nil error, want failure")
	}
}

func TestValidatorReusedWithDifferingIssuerPanics(t *testing.T) {
	infoA, keysA, rawA := newClientWithKey(t)
	infoB, keysB, rawB := newClientWithKey(t)
	infoB.ClientID = "client2"

	keys := jwtkeys.NewRegistry(jwk.NewSet())
	keys.SetClientVerificationKeys(infoA.ClientID, keysA)
	keys.SetClientVerificationKeys(infoB.ClientID, keysB)
	clients := &mockClients{byID: map[string]*client.ClientInfo{
		infoA.ClientID: infoA,
		infoB.ClientID: infoB,
	}}

	v := New("https://as.example/token", "tenant1", clients, keys)
	first := newSignedAssertion(t, rawA, infoA.ClientID, "https://as.example/token")
	if _, _, err := v.Validate(context.Background(), first); err != nil {
		t.Fatalf("first Validate: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("second Validate with a differing issuer on the same instance did not panic")
		}
		if _, ok := r.(*model.ProgrammingInvariantError); !ok {
			t.Errorf("recovered panic = %#v, want *model.ProgrammingInvariantError", r)
		}
	}()
	second := newSignedAssertion(t, rawB, infoB.ClientID, "https://as.example/token")
	_, _, _ = v.Validate(context.Background(), second)
}
