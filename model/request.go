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

// Package model holds the shared data types that flow through the
// authorization and end-session pipelines: the raw inbound request, the
// validation context the validator chain fills in, and the grant/claims
// shapes handed to the token services.
package model

import "strings"

// AuthorizationRequest is the raw inbound authorization request. It is
// immutable after Fetch produces it.
//
// Purpose: Canonical representation of an OAuth2/OIDC authorization request.
// Domain: OAuth2
// Invariants: Immutable after construction.
type AuthorizationRequest struct {
	ClientID            string
	ResponseType        []string // ordered, as supplied by the caller
	RedirectURI         string
	Scope               []string // ordered, may contain duplicates
	State               string
	ResponseMode        string
	Nonce               string
	Prompt              string
	Display             string
	MaxAge              *int
	UILocales           string
	ClaimsLocales       string
	IDTokenHint         string
	LoginHint           string
	ACRValues           string
	CodeChallenge       string
	CodeChallengeMethod string
	Request             string // JAR request JWT
	RequestURI          string // PAR request_uri
	Resources           []string
	Claims              map[string]any // requested-claims object, OIDC §5.5
}

// HasResponseType reports whether value is present in ResponseType using
// case-insensitive comparison (the "HasFlag" matcher Processor uses to
// decide what to issue; FlowTypeValidator deduplicates through
// DedupResponseTypes instead).
func (r *AuthorizationRequest) HasResponseType(value string) bool {
	for _, t := range r.ResponseType {
		if strings.EqualFold(t, value) {
			return true
		}
	}
	return false
}

// DedupResponseTypes returns the response types with case-insensitive
// duplicates removed, preserving first-seen order and original casing.
func DedupResponseTypes(types []string) []string {
	seen := make(map[string]bool, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
