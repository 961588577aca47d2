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

package par

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/opentrusty/oidc-core/model"
	"github.com/opentrusty/oidc-core/storage"
)

// sequentialIDs returns deterministic, distinct tokens so tests can
// assert on exact request_uri values without depending on real entropy.
type sequentialIDs struct{ n int }

func (g *sequentialIDs) NewID() string { g.n++; return fmt.Sprintf("id-%d", g.n) }
func (g *sequentialIDs) NewJTI() string { g.n++; return fmt.Sprintf("jti-%d", g.n) }
func (g *sequentialIDs) NewOpaqueToken(byteLen int) (string, error) {
	g.n++
	return fmt.Sprintf("tok-%d", g.n), nil
}

func TestStoreThenTryGetReturnsRequestThenNilOnSecondConsume(t *testing.T) {
	backing := storage.NewMemoryStore()
	defer backing.Close()
	s := New(backing, &sequentialIDs{})
	ctx := context.Background()

	req := &model.AuthorizationRequest{ClientID: "client1", Scope: []string{"openid"}}
	resp, err := s.Store(ctx, req, 60)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(resp.RequestURI, requestURIPrefix) {
		t.Errorf("RequestURI = %q, want prefix %q", resp.RequestURI, requestURIPrefix)
	}
	if resp.ExpiresIn != 60 {
		t.Errorf("ExpiresIn = %d, want 60", resp.ExpiresIn)
	}

	got, err := s.TryGet(ctx, resp.RequestURI, true)
	if err != nil {
		t.Fatalf("first TryGet: %v", err)
	}
	if got == nil || got.ClientID != "client1" {
		t.Fatalf("first TryGet = %+v, want the stored request back", got)
	}

	second, err := s.TryGet(ctx, resp.RequestURI, true)
	if err != nil {
		t.Fatalf("second TryGet: %v", err)
	}
	if second != nil {
		t.Fatalf("second TryGet = %+v, want nil after single-use consumption", second)
	}
}

func TestTryGetWithoutRemoveDoesNotConsume(t *testing.T) {
	backing := storage.NewMemoryStore()
	defer backing.Close()
	s := New(backing, &sequentialIDs{})
	ctx := context.Background()

	resp, err := s.Store(ctx, &model.AuthorizationRequest{ClientID: "client1"}, 60)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, err := s.TryGet(ctx, resp.RequestURI, false); err != nil {
		t.Fatalf("first TryGet: %v", err)
	}
	got, err := s.TryGet(ctx, resp.RequestURI, false)
	if err != nil {
		t.Fatalf("second TryGet: %v", err)
	}
	if got == nil {
		t.Fatal("second TryGet = nil, want the request still present when shouldRemove=false")
	}
}

func TestTryGetUnknownURIReturnsNilNotError(t *testing.T) {
	backing := storage.NewMemoryStore()
	defer backing.Close()
	s := New(backing, &sequentialIDs{})

	got, err := s.TryGet(context.Background(), requestURIPrefix+"never-issued", true)
	if err != nil {
		t.Fatalf("TryGet(unknown) error = %v, want nil", err)
	}
	if got != nil {
		t.Fatalf("TryGet(unknown) = %+v, want nil", got)
	}
}

func TestStoreMintsDistinctRequestURIsPerCall(t *testing.T) {
	backing := storage.NewMemoryStore()
	defer backing.Close()
	s := New(backing, &sequentialIDs{})
	ctx := context.Background()

	first, err := s.Store(ctx, &model.AuthorizationRequest{ClientID: "c1"}, 60)
	if err != nil {
		t.Fatalf("Store 1: %v", err)
	}
	second, err := s.Store(ctx, &model.AuthorizationRequest{ClientID: "c2"}, 60)
	if err != nil {
		t.Fatalf("Store 2: %v", err)
	}
	if first.RequestURI == second.RequestURI {
		t.Fatalf("two Store calls minted the same request_uri %q", first.RequestURI)
	}

	gotFirst, err := s.TryGet(ctx, first.RequestURI, false)
	if err != nil || gotFirst == nil || gotFirst.ClientID != "c1" {
		t.Errorf("TryGet(first) = %+v, %v, want client c1", gotFirst, err)
	}
	gotSecond, err := s.TryGet(ctx, second.RequestURI, false)
	if err != nil || gotSecond == nil || gotSecond.ClientID != "c2" {
		t.Errorf("TryGet(second) = %+v, %v, want client c2", gotSecond, err)
	}
}
