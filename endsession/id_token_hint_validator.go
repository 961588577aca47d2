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

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/jwtkeys"
)

// candidateSigningAlgorithms is every signing algorithm the server might
// have issued an id_token under; IDTokenHintValidator asks
// jwtkeys.Resolver.ServiceSigningKey for each one and verifies the hint
// against every key that resolves, since a hint token's header alone
// doesn't say which key registered it.
var candidateSigningAlgorithms = []jwa.SignatureAlgorithm{
	jwa.RS256(), jwa.RS384(), jwa.RS512(),
	jwa.ES256(), jwa.ES384(), jwa.ES512(),
	jwa.PS256(), jwa.PS384(), jwa.PS512(),
}

// IDTokenHintValidator validates request.id_token_hint when present:
// signature and audience are checked, but lifetime (exp/nbf) is not,
// since a hint may legitimately be an id_token that has already expired
// by the time the user logs out. It resolves or cross-checks
// request.client_id against the hint's audiences.
//
// Purpose: First end-session validation stage; establishes which client this logout is for.
// Domain: OIDC
type IDTokenHintValidator struct {
	Keys jwtkeys.Resolver
}

// Validate runs the stage against vctx.
func (v *IDTokenHintValidator) Validate(ctx context.Context, vctx *ValidationContext) *RequestError {
	if vctx.Request.IDTokenHint == "" {
		return nil
	}

	set, err := v.verificationKeySet(ctx)
	if err != nil {
		return newError("invalid_request", "id_token_hint failed signature validation")
	}
	token, err := jwt.Parse([]byte(vctx.Request.IDTokenHint),
		jwt.WithValidate(false),
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true), jws.WithRequireKid(false)),
	)
	if err != nil {
		return newError("invalid_request", "id_token_hint failed signature validation")
	}

	aud, _ := token.Audience()
	if vctx.Request.ClientID == "" {
		if len(aud) != 1 {
			return newError("invalid_request", "id_token_hint does not name exactly one audience")
		}
		vctx.EffectiveClientID = aud[0]
	} else if !containsString(aud, vctx.Request.ClientID) {
		return newError("invalid_request", "client_id is not among id_token_hint's audiences")
	}

	vctx.IDTokenHint = token
	return nil
}

// verificationKeySet collects the public half of every service signing
// key the resolver knows, across all candidate algorithms, into one set
// the hint's signature can be verified against.
func (v *IDTokenHintValidator) verificationKeySet(ctx context.Context) (jwk.Set, error) {
	set := jwk.NewSet()
	for _, alg := range candidateSigningAlgorithms {
		key, err := v.Keys.ServiceSigningKey(ctx, alg)
		if err != nil {
			continue
		}
		if addErr := set.AddKey(publicKey(key)); addErr != nil {
			continue
		}
	}
	if set.Len() == 0 {
		return nil, jwtkeys.ErrNoSigningKey
	}
	return set, nil
}

// publicKey returns key's public counterpart for signature verification,
// or key itself if it carries no private material (already public).
func publicKey(key jwk.Key) jwk.Key {
	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return key
	}
	return pub
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
