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

// Package authorize implements the authorization request pipeline:
// Fetch dereferences PAR/JAR into a plain request, Validate runs the
// ordered validator chain against a shared AuthorizationValidationContext,
// and Process issues the code/token/id_token per the resolved flow type.
package authorize

import (
	"context"

	"github.com/opentrusty/oidc-core/client"
	"github.com/opentrusty/oidc-core/model"
)

// ContextValidator is the single capability every validator in the chain
// implements: inspect (and possibly enrich) ctx, and return a
// client-visible error or nil. Validators run strictly in the order the
// pipeline registers them, since later validators depend on earlier
// side-effects (ClientValidator's ctx.SetClientInfo, FlowTypeValidator's
// ctx.SetFlowType).
//
// Purpose: Uniform validation step contract for the authorization request chain.
// Domain: OAuth2
type ContextValidator interface {
	Validate(ctx context.Context, vctx *model.AuthorizationValidationContext) *model.RequestError
}

// ClientInfoProvider resolves a client_id to its registered ClientInfo.
// Returning (nil, nil) is not distinguished from an error by
// ClientValidator (either way the client is not usable), but a
// concrete implementation is encouraged to return a domain error
// (client.ErrClientNotFound) for the nil case so callers elsewhere can
// distinguish "not found" from "storage failure".
type ClientInfoProvider interface {
	GetClientByClientID(ctx context.Context, tenantID, clientID string) (*client.ClientInfo, error)
}

// ScopeManager resolves a requested scope string to its definition.
type ScopeManager interface {
	Resolve(ctx context.Context, name string) (model.ScopeDefinition, bool)
}

// ResourceManager resolves a requested resource indicator URI to its
// definition (RFC 8707).
type ResourceManager interface {
	TryGet(ctx context.Context, identifier string) (model.ResourceDefinition, bool)
}

// ParStore dereferences a pushed-authorization request_uri (RFC 9126).
type ParStore interface {
	TryGet(ctx context.Context, requestURI string, shouldRemove bool) (*model.AuthorizationRequest, error)
}

// RequestObjectValidator dereferences a JAR "request" JWT into the plain
// request values it carries.
type RequestObjectValidator interface {
	ValidateRequestObject(ctx context.Context, tenantID, clientID, raw string) (map[string]any, error)
}
