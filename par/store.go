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

// Package par implements the pushed-authorization-request (RFC 9126)
// store: clients push a full authorization request ahead of time and get
// back an opaque request_uri they redeem at the authorization endpoint.
package par

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opentrusty/oidc-core/id"
	"github.com/opentrusty/oidc-core/model"
	"github.com/opentrusty/oidc-core/storage"
)

// requestURIPrefix matches the urn:ietf:params:oauth:request_uri: form
// RFC 9126 recommends, so callers can recognize a PAR handle on sight.
const requestURIPrefix = "urn:ietf:params:oauth:request_uri:"

// Store persists pushed authorization requests keyed by the unmodified
// text of the request_uri it issued, so Store and TryGet always agree on
// which entry a given URI names.
//
// Purpose: Single-use holding area for authorization requests pushed ahead of the authorization endpoint.
// Domain: OAuth2
type Store struct {
	store storage.Store
	keys  storage.KeyFactory
	ids   id.Generator
}

// New creates a PAR store over backing, namespacing its keys so it can
// share a Store instance with the token registry without collision.
func New(backing storage.Store, ids id.Generator) *Store {
	return &Store{
		store: backing,
		keys:  storage.KeyFactory{Namespace: "par"},
		ids:   ids,
	}
}

// Store persists req and returns a PushedAuthorizationResponse carrying
// a freshly minted, unique request_uri that expires after ttlSeconds.
func (s *Store) Store(ctx context.Context, req *model.AuthorizationRequest, ttlSeconds int64) (*model.PushedAuthorizationResponse, error) {
	token, err := s.ids.NewOpaqueToken(32)
	if err != nil {
		return nil, fmt.Errorf("par: generate request_uri token: %w", err)
	}
	requestURI := requestURIPrefix + token

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("par: marshal request: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := s.store.Set(ctx, s.keys.Key(requestURI), data, storage.SetOptions{AbsoluteTTL: ttl}); err != nil {
		return nil, fmt.Errorf("par: store request: %w", err)
	}

	return &model.PushedAuthorizationResponse{
		RequestURI: requestURI,
		ExpiresIn:  ttlSeconds,
	}, nil
}

// TryGet returns the request pushed under requestURI, or nil if no such
// entry exists or it has expired. When shouldRemove is true the entry is
// deleted as part of the same call, so any concurrent second TryGet with
// shouldRemove observes nothing: at-most-one successful consume.
func (s *Store) TryGet(ctx context.Context, requestURI string, shouldRemove bool) (*model.AuthorizationRequest, error) {
	key := s.keys.Key(requestURI)
	var data []byte
	var err error
	if shouldRemove {
		data, err = s.store.GetDelete(ctx, key)
	} else {
		data, err = s.store.Get(ctx, key)
	}
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("par: get request: %w", err)
	}

	var req model.AuthorizationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("par: unmarshal request: %w", err)
	}
	return &req, nil
}
