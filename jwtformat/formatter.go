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

// Package jwtformat turns an in-memory JWT claim set into the wire
// format the token services hand back to callers: a signed JWS, or, for
// clients with registered encryption keys, a JWS wrapped in a JWE.
package jwtformat

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwe"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/opentrusty/oidc-core/jwtkeys"
)

// ErrNoSigningKey is returned when the KeyResolver has no service
// signing key for the token's chosen algorithm.
var ErrNoSigningKey = errors.New("jwtformat: no signing key available")

// TokenType is the JWT "typ" header value distinguishing the four token
// classes the engine issues (OIDC §2 + the access/refresh/logout
// conventions this corpus's token services use).
type TokenType string

const (
	TypeAccessToken   TokenType = "at+jwt"
	TypeIdentityToken TokenType = "id+jwt"
	TypeRefreshToken  TokenType = "rt+jwt"
	TypeLogoutToken   TokenType = "logout+jwt"
)

// Formatter signs (and, for clients with registered encryption keys,
// encrypts) a claim set into the compact string the caller receives.
//
// Purpose: The single place a claim set becomes wire bytes.
// Domain: Cryptography
type Formatter struct {
	keys jwtkeys.Resolver
}

// New creates a Formatter backed by keys.
func New(keys jwtkeys.Resolver) *Formatter {
	return &Formatter{keys: keys}
}

// Format builds a JWT of typ carrying claims, signs it with the
// algorithm the caller requests, and, when clientID has encryption keys
// registered, wraps the resulting JWS in a JWE using an encryption key
// whose algorithm matches encAlg (the client's configured key-management
// algorithm name, e.g. "RSA-OAEP-256"). Pass an empty or unrecognized
// encAlg when the client has no encryption configured; the plain JWS is
// returned.
func (f *Formatter) Format(ctx context.Context, typ TokenType, signAlg jwa.SignatureAlgorithm, clientID string, encAlg string, claims map[string]any) (string, error) {
	builder := jwt.NewBuilder()
	for k, v := range claims {
		builder = builder.Claim(k, v)
	}
	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("jwtformat: build claim set: %w", err)
	}

	signingKey, err := f.keys.ServiceSigningKey(ctx, signAlg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoSigningKey, err)
	}

	headers := jws.NewHeaders()
	if err := headers.Set(jws.TypeKey, string(typ)); err != nil {
		return "", fmt.Errorf("jwtformat: set typ header: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(signAlg, signingKey, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", fmt.Errorf("jwtformat: sign: %w", err)
	}

	if encAlg == "" || clientID == "" {
		return string(signed), nil
	}
	kekAlg, ok := jwa.LookupKeyEncryptionAlgorithm(encAlg)
	if !ok {
		return string(signed), nil
	}

	encKey, hasAny, err := f.keys.ClientEncryptionKey(ctx, clientID, kekAlg)
	if err != nil {
		return "", fmt.Errorf("jwtformat: resolve client encryption key: %w", err)
	}
	if !hasAny {
		return string(signed), nil
	}

	encrypted, err := jwe.Encrypt(signed, jwe.WithKey(kekAlg, encKey))
	if err != nil {
		return "", fmt.Errorf("jwtformat: encrypt: %w", err)
	}
	return string(encrypted), nil
}
