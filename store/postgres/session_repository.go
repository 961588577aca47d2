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

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/oidc-core/authsession"
)

// SessionRepository implements authsession.Repository over Postgres.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new authentication session.
func (r *SessionRepository) Create(ctx context.Context, sess *authsession.Session) error {
	amr, err := json.Marshal(sess.AMR)
	if err != nil {
		return fmt.Errorf("failed to marshal amr: %w", err)
	}
	claims, err := json.Marshal(sess.AdditionalClaims)
	if err != nil {
		return fmt.Errorf("failed to marshal additional claims: %w", err)
	}
	affected, err := json.Marshal(sess.AffectedClientIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal affected client ids: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO sessions (id, subject, identity_provider, acr, amr, authentication_time,
			email, email_verified, additional_claims, affected_client_ids,
			expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		sess.ID, sess.Subject, sess.IdentityProvider, sess.ACR, amr, sess.AuthenticationTime,
		sess.Email, sess.EmailVerified, claims, affected,
		sess.ExpiresAt, sess.CreatedAt, sess.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*authsession.Session, error) {
	var sess authsession.Session
	var amr, claims, affected []byte

	err := r.db.pool.QueryRow(ctx, `
		SELECT id, subject, identity_provider, acr, amr, authentication_time,
			email, email_verified, additional_claims, affected_client_ids,
			expires_at, created_at, last_seen_at
		FROM sessions
		WHERE id = $1
	`, sessionID).Scan(
		&sess.ID, &sess.Subject, &sess.IdentityProvider, &sess.ACR, &amr, &sess.AuthenticationTime,
		&sess.Email, &sess.EmailVerified, &claims, &affected,
		&sess.ExpiresAt, &sess.CreatedAt, &sess.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authsession.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal(amr, &sess.AMR); err != nil {
		return nil, fmt.Errorf("failed to unmarshal amr: %w", err)
	}
	if err := json.Unmarshal(claims, &sess.AdditionalClaims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal additional claims: %w", err)
	}
	if err := json.Unmarshal(affected, &sess.AffectedClientIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal affected client ids: %w", err)
	}

	return &sess, nil
}

// Update persists sess's mutable fields: last_seen_at and the
// ever-growing affected_client_ids set.
func (r *SessionRepository) Update(ctx context.Context, sess *authsession.Session) error {
	affected, err := json.Marshal(sess.AffectedClientIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal affected client ids: %w", err)
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE sessions SET last_seen_at = $2, affected_client_ids = $3
		WHERE id = $1
	`, sess.ID, sess.LastSeenAt, affected)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return authsession.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expires_at has passed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.db.pool.Exec(ctx, `
		DELETE FROM sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
