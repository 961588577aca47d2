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

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("v1"), SetOptions{AbsoluteTTL: time.Minute}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Get = %q, want v1", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreAbsoluteExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(WithClock(clock))
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("v1"), SetOptions{AbsoluteTTL: time.Second}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.Advance(2 * time.Second)

	_, err := s.Get(ctx, "k1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after expiry = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSlidingTouch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(WithClock(clock))
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, "k1", []byte("v1"), SetOptions{SlidingTTL: time.Second}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.Advance(900 * time.Millisecond)
	if err := s.Touch(ctx, "k1"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	clock.Advance(900 * time.Millisecond)
	if _, err := s.Get(ctx, "k1"); err != nil {
		t.Fatalf("Get after touch = %v, want entry still alive", err)
	}
}

func TestMemoryStoreGetDeleteConsumesExactlyOnce(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k1", []byte("v1"), SetOptions{AbsoluteTTL: time.Minute})
	got, err := s.GetDelete(ctx, "k1")
	if err != nil {
		t.Fatalf("GetDelete: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("GetDelete = %q, want v1", got)
	}
	if _, err := s.GetDelete(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second GetDelete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k1", []byte("v1"), SetOptions{AbsoluteTTL: time.Minute})
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}
