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

package authsession

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/opentrusty/oidc-core/id"
)

// Service provides authentication-session lifecycle management: the
// end-session pipeline's SessionTerminator collaborator, and the source
// of truth the token services read AuthSession from.
//
// Purpose: Lifecycle management for the OIDC authentication session.
// Domain: OIDC
type Service struct {
	repo     Repository
	ids      id.Generator
	clock    clockwork.Clock
	lifetime time.Duration
}

// NewService creates a Service.
func NewService(repo Repository, ids id.Generator, clock clockwork.Clock, lifetime time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{repo: repo, ids: ids, clock: clock, lifetime: lifetime}
}

// Create starts a new authentication session for subject.
func (s *Service) Create(ctx context.Context, subject, idp, acr string, amr []string, email string, emailVerified bool, additionalClaims map[string]any) (*Session, error) {
	now := s.clock.Now()
	session := &Session{
		ID:                 s.ids.NewID(),
		Subject:            subject,
		IdentityProvider:   idp,
		ACR:                acr,
		AMR:                amr,
		AuthenticationTime: now,
		Email:              email,
		EmailVerified:      emailVerified,
		AdditionalClaims:   additionalClaims,
		ExpiresAt:          now.Add(s.lifetime),
		CreatedAt:          now,
		LastSeenAt:         now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("authsession: create: %w", err)
	}
	return session, nil
}

// Get retrieves a session by id, failing if it does not exist or has
// expired.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired(s.clock.Now()) {
		_ = s.repo.Delete(ctx, id)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// TryGet is Get without the error for a missing/expired session: the
// end-session processor's "no active session" path is not an error, so
// it calls this instead of inspecting Get's error.
func (s *Service) TryGet(ctx context.Context, id string) *Session {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil
	}
	return session
}

// RecordAffectedClient adds clientID to the session's affected-client
// set (a no-op if already present) and persists it. The authorization
// processor calls this every time it mints a token under a session, so
// end-session notification later knows every client to tell.
func (s *Service) RecordAffectedClient(ctx context.Context, sessionID, clientID string) error {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("authsession: load session for affected-client record: %w", err)
	}
	for _, existing := range session.AffectedClientIDs {
		if existing == clientID {
			return nil
		}
	}
	session.AffectedClientIDs = append(session.AffectedClientIDs, clientID)
	return s.repo.Update(ctx, session)
}

// Destroy terminates a session, signing the user out.
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// CleanupExpired removes every expired session.
func (s *Service) CleanupExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}
