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
)

// Handler binds the end-session validator chain and the Processor into
// the single entry point an end-session endpoint calls.
//
// Purpose: Top-level orchestration for one RP-initiated logout request.
// Domain: OIDC
type Handler struct {
	IDTokenHint    *IDTokenHintValidator
	PostLogoutURIs *PostLogoutRedirectUrisValidator
	Processor      *Processor
}

// Handle validates req and, if valid, terminates the authentication
// session sessionID identifies and notifies every relying party it
// touched.
func (h *Handler) Handle(ctx context.Context, req *Request, sessionID string) (*Result, *RequestError) {
	vctx := NewValidationContext(req)

	if requestErr := h.IDTokenHint.Validate(ctx, vctx); requestErr != nil {
		return nil, requestErr
	}
	if requestErr := h.PostLogoutURIs.Validate(ctx, vctx); requestErr != nil {
		return nil, requestErr
	}

	return h.Processor.Process(ctx, vctx, sessionID)
}
