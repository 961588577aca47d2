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

// Package storage provides the generic expiring key-value abstraction
// the PAR store and token registry are built on top of: one interface,
// two backends (in-memory for single-instance deployments and tests,
// Redis for multi-instance ones).
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has
// expired.
var ErrNotFound = errors.New("storage: key not found")

// SetOptions controls how long a stored value remains valid.
//
// Purpose: Per-write expiration policy for one key.
// Domain: Platform (Infrastructure)
type SetOptions struct {
	// AbsoluteTTL is the duration after which the entry expires,
	// regardless of activity. Zero means no absolute bound.
	AbsoluteTTL time.Duration
	// SlidingTTL, when nonzero, is the duration an entry survives after
	// its Set or its last Touch; Get does not re-arm it.
	SlidingTTL time.Duration
}

// Store is a namespaced, expiring key-value store. Implementations must
// be safe for concurrent use.
//
// Purpose: Shared persistence abstraction for PAR requests and token registry rows.
// Domain: Platform (Infrastructure)
type Store interface {
	// Set stores value under key with the given expiration policy,
	// overwriting any existing entry.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error
	// Get returns the value stored under key, or ErrNotFound if absent
	// or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// GetDelete atomically returns the value stored under key and
	// removes it, or ErrNotFound if absent or expired. Of two concurrent
	// GetDelete calls for the same key, at most one succeeds.
	GetDelete(ctx context.Context, key string) ([]byte, error)
	// Touch extends a sliding-window entry's expiry by its original
	// SlidingTTL, as if it had just been written. It is a no-op for
	// entries stored with only an AbsoluteTTL.
	Touch(ctx context.Context, key string) error
	// Delete removes key. It is not an error for key to be absent.
	Delete(ctx context.Context, key string) error
}

// KeyFactory builds namespaced storage keys so unrelated components
// sharing one Store (e.g. PAR entries and registry rows both living in
// the same Redis instance) never collide.
//
// Purpose: Deterministic key namespacing for one logical collection.
// Domain: Platform (Infrastructure)
type KeyFactory struct {
	Namespace string
}

// Key joins the factory's namespace with id.
func (f KeyFactory) Key(id string) string {
	return f.Namespace + ":" + id
}
