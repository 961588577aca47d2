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
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/lestrrat-go/jwx/v3/jwa"
)

func TestLeftHalfHashIsDeterministic(t *testing.T) {
	a := leftHalfHash(jwa.RS256(), "authorization-code-value")
	b := leftHalfHash(jwa.RS256(), "authorization-code-value")
	if a != b {
		t.Errorf("leftHalfHash not deterministic: %q != %q", a, b)
	}
	if c := leftHalfHash(jwa.RS256(), "different-input"); c == a {
		t.Error("leftHalfHash collides across different inputs")
	}
}

func TestLeftHalfHashMatchesManualSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("code-xyz"))
	want := base64.RawURLEncoding.EncodeToString(sum[:16])
	if got := leftHalfHash(jwa.RS256(), "code-xyz"); got != want {
		t.Errorf("leftHalfHash(RS256) = %q, want %q", got, want)
	}
}

func TestLeftHalfHashDigestSizePairsWithAlgorithm(t *testing.T) {
	tests := []struct {
		alg     jwa.SignatureAlgorithm
		wantLen int // base64url length of half the digest
	}{
		{jwa.RS256(), 22}, // SHA-256: 16 bytes -> 22 chars
		{jwa.ES256(), 22},
		{jwa.RS384(), 32}, // SHA-384: 24 bytes -> 32 chars
		{jwa.ES384(), 32},
		{jwa.RS512(), 43}, // SHA-512: 32 bytes -> 43 chars
		{jwa.ES512(), 43},
	}
	for _, tt := range tests {
		got := leftHalfHash(tt.alg, "input")
		if len(got) != tt.wantLen {
			t.Errorf("leftHalfHash(%v) length = %d, want %d", tt.alg, len(got), tt.wantLen)
		}
	}
}
