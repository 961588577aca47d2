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
	"fmt"
	"testing"

	"github.com/opentrusty/oidc-core/client"
)

type mockSessions struct {
	sessions  map[string]*Session
	destroyed []string
}

func (m *mockSessions) TryGet(ctx context.Context, id string) *Session {
	return m.sessions[id]
}

func (m *mockSessions) Destroy(ctx context.Context, id string) error {
	m.destroyed = append(m.destroyed, id)
	delete(m.sessions, id)
	return nil
}

type mockClients struct {
	clients map[string]*client.ClientInfo
}

func (m *mockClients) GetClientByClientID(ctx context.Context, tenantID, clientID string) (*client.ClientInfo, error) {
	c, ok := m.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client not found: %s", clientID)
	}
	return c, nil
}

type mockNotifier struct {
	calls []string
}

func (m *mockNotifier) NotifyClient(ctx context.Context, c *client.ClientInfo, logoutCtx LogoutContext) (string, error) {
	m.calls = append(m.calls, c.ClientID)
	if c.FrontChannelLogoutURI != "" {
		return c.FrontChannelLogoutURI + "?sid=" + logoutCtx.SessionID, nil
	}
	return "", nil
}

func TestProcessorProcess(t *testing.T) {
	t.Run("no active session returns redirect only", func(t *testing.T) {
		sessions := &mockSessions{sessions: map[string]*Session{}}
		p := &Processor{Sessions: sessions, Clients: &mockClients{}, Notifier: &mockNotifier{}}

		vctx := NewValidationContext(&Request{PostLogoutRedirectURI: "https://rp.example/logout", State: "xyz"})
		result, requestErr := p.Process(context.Background(), vctx, "missing-session")
		if requestErr != nil {
			t.Fatalf("unexpected error: %v", requestErr)
		}
		if result.PostLogoutRedirectURI != "https://rp.example/logout?state=xyz" {
			t.Errorf("PostLogoutRedirectURI = %q", result.PostLogoutRedirectURI)
		}
		if len(result.FrontChannelLogoutURIs) != 0 {
			t.Errorf("expected no front-channel URIs, got %v", result.FrontChannelLogoutURIs)
		}
		if len(sessions.destroyed) != 0 {
			t.Errorf("expected no session destroyed")
		}
	})

	t.Run("active session is destroyed and affected clients notified", func(t *testing.T) {
		sessions := &mockSessions{sessions: map[string]*Session{
			"sess-1": {ID: "sess-1", Subject: "user-1", AffectedClientIDs: []string{"client-front", "client-unknown"}},
		}}
		clients := &mockClients{clients: map[string]*client.ClientInfo{
			"client-front": {ClientID: "client-front", FrontChannelLogoutURI: "https://rp.example/fc-logout"},
		}}
		notifier := &mockNotifier{}
		p := &Processor{Sessions: sessions, Clients: clients, Notifier: notifier, Issuer: "https://issuer.example"}

		vctx := NewValidationContext(&Request{})
		result, requestErr := p.Process(context.Background(), vctx, "sess-1")
		if requestErr != nil {
			t.Fatalf("unexpected error: %v", requestErr)
		}
		if len(sessions.destroyed) != 1 || sessions.destroyed[0] != "sess-1" {
			t.Errorf("expected sess-1 destroyed, got %v", sessions.destroyed)
		}
		if len(result.FrontChannelLogoutURIs) != 1 || result.FrontChannelLogoutURIs[0] != "https://rp.example/fc-logout?sid=sess-1" {
			t.Errorf("FrontChannelLogoutURIs = %v", result.FrontChannelLogoutURIs)
		}
		if len(notifier.calls) != 1 {
			t.Errorf("expected notifier called once for the resolvable client, got %v", notifier.calls)
		}
	})

	t.Run("no state leaves redirect bare", func(t *testing.T) {
		p := &Processor{Sessions: &mockSessions{sessions: map[string]*Session{}}, Clients: &mockClients{}, Notifier: &mockNotifier{}}
		vctx := NewValidationContext(&Request{PostLogoutRedirectURI: "https://rp.example/logout"})
		result, requestErr := p.Process(context.Background(), vctx, "missing")
		if requestErr != nil {
			t.Fatalf("unexpected error: %v", requestErr)
		}
		if result.PostLogoutRedirectURI != "https://rp.example/logout" {
			t.Errorf("PostLogoutRedirectURI = %q", result.PostLogoutRedirectURI)
		}
	})
}

func TestPostLogoutRedirectUrisValidator(t *testing.T) {
	clients := &mockClients{clients: map[string]*client.ClientInfo{
		"client-1": {ClientID: "client-1", PostLogoutRedirectURIs: []string{"https://rp.example/logout"}},
	}}
	v := &PostLogoutRedirectUrisValidator{Clients: clients}

	tests := []struct {
		name      string
		req       *Request
		clientID  string
		wantError string
	}{
		{
			name: "no post_logout_redirect_uri skips validation",
			req:  &Request{},
		},
		{
			name:     "registered uri passes",
			req:      &Request{PostLogoutRedirectURI: "https://rp.example/logout"},
			clientID: "client-1",
		},
		{
			name:      "unregistered uri is rejected",
			req:       &Request{PostLogoutRedirectURI: "https://evil.example/logout"},
			clientID:  "client-1",
			wantError: "invalid_request",
		},
		{
			name:      "unresolvable client is rejected",
			req:       &Request{PostLogoutRedirectURI: "https://rp.example/logout"},
			clientID:  "client-missing",
			wantError: "unauthorized_client",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vctx := NewValidationContext(tt.req)
			vctx.EffectiveClientID = tt.clientID
			err := v.Validate(context.Background(), vctx)
			if tt.wantError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Code != tt.wantError {
				t.Fatalf("Validate() error = %v, want code %q", err, tt.wantError)
			}
		})
	}
}
