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
	"net/http"
	"net/url"
	"strings"

	"github.com/opentrusty/oidc-core/client"
)

// LogoutTokenIssuer is the subset of *token.LogoutTokenService the
// default notifier depends on.
type LogoutTokenIssuer interface {
	Issue(ctx context.Context, c *client.ClientInfo, subject, sessionID string) (string, error)
}

// defaultNotifier is the built-in LogoutNotifier: front-channel clients
// get their registered iframe URI back (with session/issuer appended per
// OIDC Front-Channel Logout 1.0 §2); back-channel clients receive a POST
// of a signed logout_token to their registered endpoint, per OIDC
// Back-Channel Logout 1.0 §2.
//
// Purpose: Default front/back-channel logout delivery.
// Domain: OIDC
type defaultNotifier struct {
	logoutTokens LogoutTokenIssuer
	httpClient   *http.Client
}

// NewNotifier creates the default LogoutNotifier.
func NewNotifier(logoutTokens LogoutTokenIssuer, httpClient *http.Client) LogoutNotifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &defaultNotifier{logoutTokens: logoutTokens, httpClient: httpClient}
}

// NotifyClient implements LogoutNotifier.
func (n *defaultNotifier) NotifyClient(ctx context.Context, c *client.ClientInfo, logoutCtx LogoutContext) (string, error) {
	var frontChannelURI string
	if c.FrontChannelLogoutURI != "" {
		frontChannelURI = appendLogoutParams(c.FrontChannelLogoutURI, logoutCtx)
	}

	if c.BackChannelLogout != nil {
		if err := n.postBackChannel(ctx, c, logoutCtx); err != nil {
			return frontChannelURI, fmt.Errorf("endsession: back-channel logout: %w", err)
		}
	}

	return frontChannelURI, nil
}

func (n *defaultNotifier) postBackChannel(ctx context.Context, c *client.ClientInfo, logoutCtx LogoutContext) error {
	logoutToken, err := n.logoutTokens.Issue(ctx, c, logoutCtx.SubjectID, logoutCtx.SessionID)
	if err != nil {
		return err
	}

	form := url.Values{"logout_token": {logoutToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BackChannelLogout.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("back-channel endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func appendLogoutParams(uri string, logoutCtx LogoutContext) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "iss=" + url.QueryEscape(logoutCtx.Issuer) + "&sid=" + url.QueryEscape(logoutCtx.SessionID)
}
