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
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"

	"github.com/lestrrat-go/jwx/v3/jwa"
)

// leftHalfHash implements the c_hash/at_hash recipe OIDC Core §3.1.3.6
// and §3.3.2.11 share: hash the ASCII bytes of input with the digest
// whose size pairs with signAlg, take the left half of the digest, and
// base64url-encode it without padding. There is no ecosystem helper for
// this in jwx; it's a six-line algorithm-keyed truncation.
func leftHalfHash(signAlg jwa.SignatureAlgorithm, input string) string {
	var sum []byte
	switch signAlg {
	case jwa.RS384(), jwa.ES384(), jwa.PS384():
		s := sha512.Sum384([]byte(input))
		sum = s[:]
	case jwa.RS512(), jwa.ES512(), jwa.PS512():
		s := sha512.Sum512([]byte(input))
		sum = s[:]
	default:
		s := sha256.Sum256([]byte(input))
		sum = s[:]
	}
	half := sum[:len(sum)/2]
	return base64.RawURLEncoding.EncodeToString(half)
}
