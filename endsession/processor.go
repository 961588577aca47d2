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
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/opentrusty/oidc-core/audit"
	"github.com/opentrusty/oidc-core/model"
)

// Result is the end-session response: where to send the user-agent and
// which front-channel logout iframes to render alongside it.
type Result struct {
	PostLogoutRedirectURI  string
	FrontChannelLogoutURIs []string
}

// Processor is the end-session processing stage: compute the
// effective redirect, short-circuit on no active session, sign the user
// out, and fan the LogoutNotifier out over every client the session
// touched.
//
// Purpose: Terminates an authentication session and notifies every relying party that used it.
// Domain: OIDC
type Processor struct {
	Sessions SessionTerminator
	Clients  ClientInfoProvider
	Notifier LogoutNotifier
	Issuer   string
	TenantID string
	// Audit, when set, receives a TypeLogout event for every session this
	// processor terminates.
	Audit audit.Logger
	Clock clockwork.Clock
}

func (p *Processor) clock() clockwork.Clock {
	if p.Clock == nil {
		return clockwork.NewRealClock()
	}
	return p.Clock
}

// Process runs the stage for sessionID, the caller's view of which
// authentication session (if any) the logout request's credentials
// resolved to.
func (p *Processor) Process(ctx context.Context, vctx *ValidationContext, sessionID string) (*Result, *RequestError) {
	effectiveURI := p.effectiveRedirectURI(vctx)

	session := p.Sessions.TryGet(ctx, sessionID)
	if session == nil {
		return &Result{PostLogoutRedirectURI: effectiveURI}, nil
	}
	if session.Subject == "" {
		panic(model.ErrProgrammingInvariant("endsession: session has no subject"))
	}

	if err := p.Sessions.Destroy(ctx, session.ID); err != nil {
		return nil, newError("server_error", "failed to terminate session")
	}

	if p.Audit != nil {
		p.Audit.Log(ctx, audit.Event{
			Type:      audit.TypeLogout,
			ActorID:   session.Subject,
			TenantID:  p.TenantID,
			Resource:  "session",
			TargetID:  session.ID,
			Timestamp: p.clock().Now(),
		})
	}

	logoutCtx := LogoutContext{
		SessionID: session.ID,
		SubjectID: session.Subject,
		Issuer:    p.Issuer,
	}

	frontChannelURIs := p.notifyAffectedClients(ctx, session.AffectedClientIDs, logoutCtx)

	return &Result{
		PostLogoutRedirectURI:  effectiveURI,
		FrontChannelLogoutURIs: frontChannelURIs,
	}, nil
}

// effectiveRedirectURI appends state to post_logout_redirect_uri as a
// query parameter when both are present.
func (p *Processor) effectiveRedirectURI(vctx *ValidationContext) string {
	uri := vctx.Request.PostLogoutRedirectURI
	if uri == "" || vctx.Request.State == "" {
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "state=" + vctx.Request.State
}

// notifyAffectedClients resolves and notifies every client_id in
// affected, concurrently, awaiting all before returning. An unknown
// client is skipped; a notification failure is logged, not surfaced,
// because logout must succeed for the user even when a relying party is
// down.
func (p *Processor) notifyAffectedClients(ctx context.Context, affected []string, logoutCtx LogoutContext) []string {
	results := make([]string, len(affected))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, clientID := range affected {
		eg.Go(func() error {
			info, err := p.Clients.GetClientByClientID(egCtx, p.TenantID, clientID)
			if err != nil || info == nil {
				return nil
			}
			uri, err := p.Notifier.NotifyClient(egCtx, info, logoutCtx)
			if err != nil {
				slog.WarnContext(egCtx, "endsession: logout notification failed",
					"client_id", clientID, "error", err)
			}
			results[i] = uri
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]string, 0, len(results))
	for _, uri := range results {
		if uri != "" {
			out = append(out, uri)
		}
	}
	return out
}
