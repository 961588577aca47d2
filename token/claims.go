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

import (
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// claimString reads a string claim, returning "" if absent or of the
// wrong type.
func claimString(t jwt.Token, name string) string {
	var v string
	if err := t.Get(name, &v); err != nil {
		return ""
	}
	return v
}

// claimBool reads a bool claim, returning false if absent.
func claimBool(t jwt.Token, name string) bool {
	var v bool
	if err := t.Get(name, &v); err != nil {
		return false
	}
	return v
}

// claimTime reads a Unix-seconds numeric claim as a time.Time.
func claimTime(t jwt.Token, name string) time.Time {
	var v float64
	if err := t.Get(name, &v); err != nil {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}

// claimStringSlice reads a claim that may be encoded as either a JSON
// array of strings or (for "aud"-style single-value shorthand) a bare
// string.
func claimStringSlice(t jwt.Token, name string) []string {
	var v []string
	if err := t.Get(name, &v); err == nil {
		return v
	}
	var single string
	if err := t.Get(name, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// remainingClaims returns every claim on t not named in exclude, for
// carrying a token's custom claims (session.AdditionalClaims) back out
// when reconstructing an AuthSession from a previously issued token.
func remainingClaims(t jwt.Token, exclude ...string) map[string]any {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}
	out := make(map[string]any)
	for _, name := range t.Keys() {
		if excluded[name] {
			continue
		}
		var v any
		if err := t.Get(name, &v); err == nil {
			out[name] = v
		}
	}
	return out
}
