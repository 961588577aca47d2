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

// Package id generates the identifiers used throughout the engine:
// entity ids, JWT jti claims, and opaque PAR request_uri suffixes.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// Generator abstracts identifier creation so token services and the PAR
// store can be seeded with a deterministic generator in tests.
//
// Purpose: Single source of identifier creation for entities, jtis and tokens.
// Domain: Platform (Infrastructure)
type Generator interface {
	// NewID returns a new unique entity identifier.
	NewID() string
	// NewJTI returns a new unique JWT id claim value.
	NewJTI() string
	// NewOpaqueToken returns a new cryptographically random URL-safe token
	// of the given byte length (before encoding).
	NewOpaqueToken(byteLen int) (string, error)
}

// UUIDGenerator implements Generator using UUIDv7 (time-ordered) ids and
// crypto/rand for opaque tokens.
type UUIDGenerator struct{}

// NewUUIDGenerator creates the default identifier generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new UUIDv7 string.
func (UUIDGenerator) NewID() string {
	return NewUUIDv7()
}

// NewJTI returns a new UUIDv7 string for use as a JWT jti claim.
func (UUIDGenerator) NewJTI() string {
	return NewUUIDv7()
}

// NewOpaqueToken returns base64url-encoded cryptographically random bytes.
func (UUIDGenerator) NewOpaqueToken(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate opaque token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewUUIDv7 returns a new time-ordered UUIDv7 string. Falls back to a
// random UUIDv4 if the runtime's entropy source rejects UUIDv7 generation.
func NewUUIDv7() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return u.String()
}
