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

package jwtformat

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/jwtkeys"
)

func newSigningSet(t *testing.T) (jwk.Set, *rsa.PrivateKey) {
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
	return set, raw
}

func TestFormatPlainSignedToken(t *testing.T) {
	signingSet, signingKey := newSigningSet(t)
	keys := jwtkeys.NewRegistry(signingSet)
	f := New(keys)

	raw, err := f.Format(context.Background(), TypeAccessToken, jwa.RS256(), "", "", map[string]any{"sub": "user1"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Count(raw, ".") != 2 {
		t.Errorf("Format with no encAlg produced %q, want a compact JWS (two dots)", raw)
	}

	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.RS256(), signingKey.Public()), jwt.WithValidate(false))
	if err != nil {
		t.Fatalf("verify signed token: %v", err)
	}
	if sub, _ := tok.Subject(); sub != "user1" {
		t.Errorf("signed token sub = %q, want user1", sub)
	}
}

func TestFormatClientWithNoEncryptionKeysStaysPlain(t *testing.T) {
	signingSet, _ := newSigningSet(t)
	keys := jwtkeys.NewRegistry(signingSet)
	f := New(keys)

	raw, err := f.Format(context.Background(), TypeAccessToken, jwa.RS256(), "client1", "RSA-OAEP-256", map[string]any{"sub": "user1"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Count(raw, ".") != 2 {
		t.Errorf("Format for a client with no registered encryption keys produced %q, want a plain compact JWS", raw)
	}
}

func TestFormatEncryptsForClientWithEncryptionKeys(t *testing.T) {
	signingSet, _ := newSigningSet(t)
	signing := jwtkeys.NewRegistry(signingSet)
	encRaw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa enc key: %v", err)
	}
	encPub, err := jwk.Import(encRaw.Public())
	if err != nil {
		t.Fatalf("import public jwk: %v", err)
	}
	encAlg := jwa.RSA_OAEP_256()
	if err := encPub.Set(jwk.AlgorithmKey, encAlg); err != nil {
		t.Fatalf("set alg: %v", err)
	}
	encSet := jwk.NewSet()
	if err := encSet.AddKey(encPub); err != nil {
		t.Fatalf("add enc key: %v", err)
	}
	signing.SetClientEncryptionKeys("client1", encSet)

	f := New(signing)
	raw, err := f.Format(context.Background(), TypeAccessToken, jwa.RS256(), "client1", encAlg.String(), map[string]any{"sub": "user1"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Count(raw, ".") != 4 {
		t.Errorf("Format for a client with registered encryption keys produced %q, want a compact JWE (four dots)", raw)
	}

	decrypted, err := jwe.Decrypt([]byte(raw), jwe.WithKey(encAlg, encRaw))
	if err != nil {
		t.Fatalf("decrypt with matching private key: %v", err)
	}
	signingKey, ok := signingSet.Key(0)
	if !ok {
		t.Fatal("signing set has no key at index 0")
	}
	pub, err := signingKey.PublicKey()
	if err != nil {
		t.Fatalf("derive public signing key: %v", err)
	}
	tok, err := jwt.Parse(decrypted, jwt.WithKey(jwa.RS256(), pub), jwt.WithValidate(false))
	if err != nil {
		t.Fatalf("parse decrypted inner JWS: %v", err)
	}
	if sub, _ := tok.Subject(); sub != "user1" {
		t.Errorf("decrypted token sub = %q, want user1", sub)
	}
}

func TestFormatNoSigningKeyFails(t *testing.T) {
	keys := jwtkeys.NewRegistry(jwk.NewSet())
	f := New(keys)

	_, err := f.Format(context.Background(), TypeAccessToken, jwa.RS256(), "", "", map[string]any{"sub": "user1"})
	if !errors.Is(err, ErrNoSigningKey) && !errors.Is(err, jwtkeys.ErrNoSigningKey) {
		t.Errorf("Format with no signing key error = %v, want ErrNoSigningKey chain", err)
	}
}
