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

package model

import (
	"fmt"

	"github.com/opentrusty/oidc-core/client"
)

// ProgrammingInvariantError reports a violation of an invariant the
// caller (not the end user) is responsible for respecting: reading a
// validation context field before it was set, or setting one twice.
// It is never returned to an HTTP caller; it is meant to surface a bug
// in the validator chain during development.
//
// Purpose: Distinguish caller-programming-error panics from request errors.
// Domain: Platform (Infrastructure)
type ProgrammingInvariantError struct {
	Code string
}

func (e *ProgrammingInvariantError) Error() string {
	return fmt.Sprintf("programming invariant violated: %s", e.Code)
}

// ErrProgrammingInvariant wraps code into a *ProgrammingInvariantError.
func ErrProgrammingInvariant(code string) error {
	return &ProgrammingInvariantError{Code: code}
}

// validationField bits, tracked in AuthorizationValidationContext.sealed.
const (
	fieldClientInfo = 1 << iota
	fieldFlowType
)

// AuthorizationValidationContext accumulates the results the validator
// chain produces from an AuthorizationRequest. ClientInfo and FlowType
// are write-once: the accessor panics if read before the corresponding
// validator has run, and panics if a later validator tries to set it
// again. This mirrors the ordering invariant the validator chain must
// respect: ClientValidator before anything depends on the client, and
// FlowTypeValidator exactly once before ResponseModeValidator reads it.
//
// Purpose: Mutable scratch space threaded through the validator chain for one request.
// Domain: OAuth2
// Invariants: ClientInfo and FlowType may each be set exactly once, and must be set before being read.
type AuthorizationValidationContext struct {
	Request *AuthorizationRequest

	sealed uint8

	clientInfo *client.ClientInfo
	flowType   FlowType

	ResponseMode        ResponseMode
	ValidRedirectURI    string
	Scopes              []ScopeDefinition
	Resources           []ResourceDefinition
	RequestedClaims     map[string]any
	CodeChallenge       string
	CodeChallengeMethod string
}

// NewAuthorizationValidationContext seeds a validation context for req.
// RequestedClaims is seeded from req.Claims up front: it is the
// requested-claims object the client sent, not something a validator
// derives, so it needs no write-once protection and no validator stage
// of its own.
func NewAuthorizationValidationContext(req *AuthorizationRequest) *AuthorizationValidationContext {
	return &AuthorizationValidationContext{Request: req, RequestedClaims: req.Claims}
}

// ClientInfo returns the resolved client, populated by ClientValidator.
// It panics if called before ClientValidator has run.
func (c *AuthorizationValidationContext) ClientInfo() *client.ClientInfo {
	if c.sealed&fieldClientInfo == 0 {
		panic(ErrProgrammingInvariant("AuthorizationValidationContext.ClientInfo read before set"))
	}
	return c.clientInfo
}

// SetClientInfo records the resolved client. It panics if called twice.
func (c *AuthorizationValidationContext) SetClientInfo(info *client.ClientInfo) {
	if c.sealed&fieldClientInfo != 0 {
		panic(ErrProgrammingInvariant("AuthorizationValidationContext.ClientInfo set twice"))
	}
	c.clientInfo = info
	c.sealed |= fieldClientInfo
}

// FlowType returns the flow classification, populated by FlowTypeValidator.
// It panics if called before FlowTypeValidator has run.
func (c *AuthorizationValidationContext) FlowType() FlowType {
	if c.sealed&fieldFlowType == 0 {
		panic(ErrProgrammingInvariant("AuthorizationValidationContext.FlowType read before set"))
	}
	return c.flowType
}

// SetFlowType records the flow classification. It panics if called twice.
func (c *AuthorizationValidationContext) SetFlowType(ft FlowType) {
	if c.sealed&fieldFlowType != 0 {
		panic(ErrProgrammingInvariant("AuthorizationValidationContext.FlowType set twice"))
	}
	c.flowType = ft
	c.sealed |= fieldFlowType
}

// HasClientInfo reports whether ClientValidator has already run, without
// triggering the read-before-write panic. Later validators use this to
// guard optional client-dependent checks.
func (c *AuthorizationValidationContext) HasClientInfo() bool {
	return c.sealed&fieldClientInfo != 0
}

// HasFlowType reports whether FlowTypeValidator has already run, without
// triggering the read-before-write panic.
func (c *AuthorizationValidationContext) HasFlowType() bool {
	return c.sealed&fieldFlowType != 0
}
