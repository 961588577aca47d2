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

	"github.com/opentrusty/oidc-core/client"
)

// ClientInfoProvider resolves a client_id to its registered ClientInfo,
// the same collaborator the authorization pipeline uses.
type ClientInfoProvider interface {
	GetClientByClientID(ctx context.Context, tenantID, clientID string) (*client.ClientInfo, error)
}

// Session is the minimal view of an authentication session the
// end-session processor needs: who it belongs to and which clients it
// has touched.
type Session struct {
	ID                string
	Subject           string
	AffectedClientIDs []string
}

// SessionTerminator is the subset of authsession.Service capability the
// end-session processor depends on: reading a session to discover its
// affected clients, and destroying it.
type SessionTerminator interface {
	TryGet(ctx context.Context, sessionID string) *Session
	Destroy(ctx context.Context, sessionID string) error
}

// LogoutContext is the read-only context every LogoutNotifier call
// receives.
type LogoutContext struct {
	SessionID string
	SubjectID string
	Issuer    string
}

// LogoutNotifier notifies one affected client that its end-user session
// has ended. Front-channel clients return the iframe URI to render;
// back-channel clients perform their own POST and return "".
type LogoutNotifier interface {
	NotifyClient(ctx context.Context, c *client.ClientInfo, logoutCtx LogoutContext) (frontChannelURI string, err error)
}
