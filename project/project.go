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

package project

import (
	"context"
	"time"
)

// Project represents a resource a subject has been granted client-scoped
// access to, surfaced in the OIDC UserInfo response as the "projects" claim
// (see authz.Service.BuildUserInfoClaims). There is no administrative surface
// here: this library reads project membership to build claims, it does not
// manage project lifecycle; a host application owns project CRUD against
// the same "projects" table and grants access through role.AssignmentRepository.
//
// Purpose: Entity representing a resource boundary surfaced in token claims.
// Domain: Platform
// Invariants: ID must be unique.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ProjectRepository defines the read access to project membership this
// library needs to build a subject's claims. It is intentionally not a CRUD
// interface: project administration is out of scope for an OIDC core.
//
// Purpose: Abstraction for resolving a subject's accessible projects.
// Domain: Platform
type ProjectRepository interface {
	// ListByUser retrieves all projects a user has access to
	ListByUser(ctx context.Context, userID string) ([]*Project, error)
}
