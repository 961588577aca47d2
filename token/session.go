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

package token

import "time"

// AuthSession is the result of end-user authentication. The token
// services never persist this themselves (that is authsession.Service's
// job); they only read it to build claim sets, and reconstruct a copy of
// it from a previously issued token's claims when a later grant
// (refresh, or token-based re-authentication) needs it back.
//
// Purpose: Snapshot of who authenticated, when, and how, carried into every token minted from it.
// Domain: OIDC
type AuthSession struct {
	Subject            string
	SessionID          string
	AuthenticationTime time.Time
	IdentityProvider   string
	ACR                string
	AMR                []string
	AffectedClientIDs  []string
	Email              string
	EmailVerified      bool
	AdditionalClaims   map[string]any
}
