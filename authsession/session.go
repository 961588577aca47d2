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

// Package authsession persists the OIDC authentication session: who
// authenticated, when, how, and which clients have since relied on that
// session (the set the end-session pipeline must notify on logout).
package authsession

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrSessionNotFound = errors.New("authsession: session not found")
	ErrSessionExpired  = errors.New("authsession: session expired")
)

// Session is the server-side record of an authenticated end-user.
//
// Purpose: Server-side record backing every token minted from one authentication event.
// Domain: OIDC
type Session struct {
	ID                 string
	Subject            string
	IdentityProvider   string
	ACR                string
	AMR                []string
	AuthenticationTime time.Time
	Email              string
	EmailVerified      bool
	AdditionalClaims   map[string]any
	// AffectedClientIDs accumulates every client_id a token was minted
	// for under this session, so end-session notification knows who to
	// tell. It only grows, never shrinks, over the session's lifetime.
	AffectedClientIDs []string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	LastSeenAt        time.Time
}

// IsExpired reports whether the session has expired as of now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Repository defines persistence for authentication sessions.
//
// Purpose: Abstraction for durable OIDC session storage.
// Domain: OIDC
type Repository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}
