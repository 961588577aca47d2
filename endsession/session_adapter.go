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

	"github.com/opentrusty/oidc-core/authsession"
)

// SessionAdapter adapts *authsession.Service to the SessionTerminator
// interface the end-session processor depends on.
type SessionAdapter struct {
	Sessions *authsession.Service
}

// TryGet implements SessionTerminator.
func (a *SessionAdapter) TryGet(ctx context.Context, sessionID string) *Session {
	s := a.Sessions.TryGet(ctx, sessionID)
	if s == nil {
		return nil
	}
	return &Session{ID: s.ID, Subject: s.Subject, AffectedClientIDs: s.AffectedClientIDs}
}

// Destroy implements SessionTerminator.
func (a *SessionAdapter) Destroy(ctx context.Context, sessionID string) error {
	return a.Sessions.Destroy(ctx, sessionID)
}
