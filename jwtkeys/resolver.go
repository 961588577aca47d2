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

// Package jwtkeys resolves the key material the JWT formatter and the
// client-JWT validator need: the authorization server's own signing
// keys, and the encryption/verification keys registered per client.
package jwtkeys

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// ErrNoSigningKey is returned when no registered key matches the
// requested signing algorithm. The JwtFormatter surfaces this as a
// token-creation failure, never to the client.
var ErrNoSigningKey = errors.New("jwtkeys: no signing key for algorithm")

// ErrNoEncryptionKey is returned when a client has encryption keys
// registered but none match its configured key-management algorithm.
var ErrNoEncryptionKey = errors.New("jwtkeys: no encryption key for algorithm")

// Resolver is the KeyResolver collaborator: it hands the JwtFormatter the
// server's own signing key and, when present, a client's encryption key;
// it hands the client-JWT validator a client's registered verification
// keys.
//
// Purpose: Key material lookup for signing, encryption, and client-JWT verification.
// Domain: Cryptography
type Resolver interface {
	// ServiceSigningKey returns the authorization server's own private
	// key whose alg matches the requested signing algorithm.
	ServiceSigningKey(ctx context.Context, alg jwa.SignatureAlgorithm) (jwk.Key, error)
	// ClientEncryptionKey returns the client's public encryption key
	// whose alg matches the client's configured key-management
	// algorithm, or (nil, false, nil) if the client has no encryption
	// keys registered at all.
	ClientEncryptionKey(ctx context.Context, clientID string, alg jwa.KeyEncryptionAlgorithm) (key jwk.Key, hasAny bool, err error)
	// ClientVerificationKeys returns the signing keys registered for
	// clientID, for validating client assertions and JAR request
	// objects. An unknown client yields an empty set, not an error.
	ClientVerificationKeys(ctx context.Context, clientID string) (jwk.Set, error)
}

// Registry is an in-memory Resolver seeded with the server's own signing
// keys and per-client JWK sets. It is the default implementation; a
// production deployment backs it with whatever key-management system
// holds the private material.
type Registry struct {
	mu            sync.RWMutex
	signing       jwk.Set
	clientKeys    map[string]jwk.Set // verification keys, keyed by client_id
	clientEncKeys map[string]jwk.Set // encryption keys, keyed by client_id
}

// NewRegistry creates a key registry seeded with the server's own
// signing key set.
func NewRegistry(signing jwk.Set) *Registry {
	return &Registry{
		signing:       signing,
		clientKeys:    make(map[string]jwk.Set),
		clientEncKeys: make(map[string]jwk.Set),
	}
}

// SetClientVerificationKeys registers clientID's JWT-verification keys
// (for client assertions and JAR request objects).
func (r *Registry) SetClientVerificationKeys(clientID string, set jwk.Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientKeys[clientID] = set
}

// SetClientEncryptionKeys registers clientID's public encryption keys
// (for JWE-wrapping tokens addressed to it).
func (r *Registry) SetClientEncryptionKeys(clientID string, set jwk.Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientEncKeys[clientID] = set
}

// ServiceSigningKey returns the first registered signing key whose alg
// matches.
func (r *Registry) ServiceSigningKey(_ context.Context, alg jwa.SignatureAlgorithm) (jwk.Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.signing == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSigningKey, alg)
	}
	key := findByAlgorithm(r.signing, alg.String())
	if key == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSigningKey, alg)
	}
	return key, nil
}

// ClientEncryptionKey returns clientID's encryption key matching alg.
func (r *Registry) ClientEncryptionKey(_ context.Context, clientID string, alg jwa.KeyEncryptionAlgorithm) (jwk.Key, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.clientEncKeys[clientID]
	if !ok || set.Len() == 0 {
		return nil, false, nil
	}
	key := findByAlgorithm(set, alg.String())
	if key == nil {
		return nil, true, fmt.Errorf("%w: client %s, alg %s", ErrNoEncryptionKey, clientID, alg)
	}
	return key, true, nil
}

// ClientVerificationKeys returns clientID's registered verification
// keys, or an empty set for an unknown client.
func (r *Registry) ClientVerificationKeys(_ context.Context, clientID string) (jwk.Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if set, ok := r.clientKeys[clientID]; ok {
		return set, nil
	}
	return jwk.NewSet(), nil
}

// findByAlgorithm returns the first key in set whose Algorithm() matches
// alg, or nil. A key with no algorithm declared matches any request iff
// it is the only key in the set, matching the common single-key-per-set
// deployment shape.
func findByAlgorithm(set jwk.Set, alg string) jwk.Key {
	var fallback jwk.Key
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		a, ok := key.Algorithm()
		if ok && a.String() == alg {
			return key
		}
		if !ok && fallback == nil && set.Len() == 1 {
			fallback = key
		}
	}
	return fallback
}
