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

// Package registry tracks the lifecycle of issued access, identity,
// refresh, and logout tokens by jti, so they can be revoked before their
// natural expiry and so revocation can be checked without re-parsing the
// token itself.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/opentrusty/oidc-core/model"
	"github.com/opentrusty/oidc-core/storage"
)

// entry is the value persisted per jti.
type entry struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// Registry records issued tokens against a storage.Store, keyed by jti.
// Expiration is always absolute: a token's registry row never outlives
// its own exp claim, and is never extended by activity.
//
// Purpose: Revocation and status tracking for every token class the token services issue.
// Domain: OAuth2
type Registry struct {
	store storage.Store
	keys  storage.KeyFactory
	clock clockwork.Clock
}

// New creates a Registry over store, namespacing its keys under ns (so
// one Store can back multiple registries, e.g. one per token class, or
// share a namespace with par.Store without collision).
func New(store storage.Store, ns string, clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		store: store,
		keys:  storage.KeyFactory{Namespace: ns},
		clock: clock,
	}
}

// Register records a newly issued token so it can later be revoked or
// have its status queried. expiresAt should match the token's exp claim.
func (r *Registry) Register(ctx context.Context, jti string, expiresAt time.Time) error {
	e := entry{JTI: jti, ExpiresAt: expiresAt}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("registry: marshal entry: %w", err)
	}
	ttl := expiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.store.Set(ctx, r.keys.Key(jti), data, storage.SetOptions{AbsoluteTTL: ttl})
}

// Revoke marks jti as revoked. Revoking a jti the registry never saw (or
// has already expired out of the store) is not an error; the caller's
// intent is already satisfied.
func (r *Registry) Revoke(ctx context.Context, jti string) error {
	raw, err := r.store.Get(ctx, r.keys.Key(jti))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil
		}
		return fmt.Errorf("registry: get entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return fmt.Errorf("registry: unmarshal entry: %w", err)
	}
	if e.Revoked {
		return nil
	}
	e.Revoked = true

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("registry: marshal entry: %w", err)
	}
	ttl := e.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.store.Set(ctx, r.keys.Key(jti), data, storage.SetOptions{AbsoluteTTL: ttl})
}

// GetStatus reports jti's status without mutating it. A jti the registry
// never saw (or one that has aged out of the store naturally) is
// reported as inactive rather than as an error; that is the common case
// for any token older than its own lifetime, not a failure.
func (r *Registry) GetStatus(ctx context.Context, jti string) (model.JsonWebTokenStatus, error) {
	raw, err := r.store.Get(ctx, r.keys.Key(jti))
	if err != nil {
		if err == storage.ErrNotFound {
			return model.JsonWebTokenStatus{JTI: jti, Active: false}, nil
		}
		return model.JsonWebTokenStatus{}, fmt.Errorf("registry: get entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.JsonWebTokenStatus{}, fmt.Errorf("registry: unmarshal entry: %w", err)
	}

	active := !e.Revoked && r.clock.Now().Before(e.ExpiresAt)
	return model.JsonWebTokenStatus{
		JTI:       jti,
		Active:    active,
		Revoked:   e.Revoked,
		ExpiresAt: e.ExpiresAt,
	}, nil
}

// IsRevoked is a convenience check used on the hot path of token
// validation, where only a boolean is needed.
func (r *Registry) IsRevoked(ctx context.Context, jti string) (bool, error) {
	status, err := r.GetStatus(ctx, jti)
	if err != nil {
		return false, err
	}
	return status.Revoked, nil
}
