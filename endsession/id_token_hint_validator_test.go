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

package endsession

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/jwtkeys"
)

func newTestSigningKeys(t *testing.T) jwk.Set {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	key, err := jwk.Import(raw)
	if err != nil {
		t.Fatalf("import jwk: %v", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		t.Fatalf("set alg: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		t.Fatalf("add key: %v", err)
	}
	return set
}

func signTestIDToken(t *testing.T, signing jwk.Set, audience []string) string {
	t.Helper()
	key, _ := signing.Key(0)

	token, err := jwt.NewBuilder().
		Issuer("https://issuer.example").
		Audience(audience).
		Subject("user-1").
		IssuedAt(time.Now().Add(-time.Hour)).
		Expiration(time.Now().Add(-time.Minute)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestIDTokenHintValidator(t *testing.T) {
	signing := newTestSigningKeys(t)
	registry := jwtkeys.NewRegistry(signing)
	v := &IDTokenHintValidator{Keys: registry}

	t.Run("no hint skips validation", func(t *testing.T) {
		vctx := NewValidationContext(&Request{})
		if err := v.Validate(context.Background(), vctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("valid hint with single audience resolves client_id", func(t *testing.T) {
		hint := signTestIDToken(t, signing, []string{"client-1"})
		vctx := NewValidationContext(&Request{IDTokenHint: hint})
		if err := v.Validate(context.Background(), vctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if vctx.EffectiveClientID != "client-1" {
			t.Errorf("EffectiveClientID = %q, want client-1", vctx.EffectiveClientID)
		}
		if vctx.IDTokenHint == nil {
			t.Errorf("expected parsed IDTokenHint to be set")
		}
	})

	t.Run("expired hint still validates (no lifetime check)", func(t *testing.T) {
		hint := signTestIDToken(t, signing, []string{"client-1"})
		vctx := NewValidationContext(&Request{IDTokenHint: hint})
		if err := v.Validate(context.Background(), vctx); err != nil {
			t.Fatalf("unexpected error for expired-but-validly-signed hint: %v", err)
		}
	})

	t.Run("client_id matching one of several audiences passes", func(t *testing.T) {
		hint := signTestIDToken(t, signing, []string{"client-1", "client-2"})
		vctx := NewValidationContext(&Request{IDTokenHint: hint, ClientID: "client-2"})
		if err := v.Validate(context.Background(), vctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("client_id absent from audiences is rejected", func(t *testing.T) {
		hint := signTestIDToken(t, signing, []string{"client-1"})
		vctx := NewValidationContext(&Request{IDTokenHint: hint, ClientID: "client-other"})
		err := v.Validate(context.Background(), vctx)
		if err == nil || err.Code != "invalid_request" {
			t.Fatalf("Validate() error = %v, want invalid_request", err)
		}
	})

	t.Run("tampered signature is rejected", func(t *testing.T) {
		hint := signTestIDToken(t, signing, []string{"client-1"})
		tampered := hint[:len(hint)-4] + "abcd"
		vctx := NewValidationContext(&Request{IDTokenHint: tampered})
		err := v.Validate(context.Background(), vctx)
		if err == nil || err.Code != "invalid_request" {
			t.Fatalf("Validate() error = %v, want invalid_request", err)
		}
	})
}
