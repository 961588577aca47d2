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

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opentrusty/oidc-core/project"
)

// ProjectRepository implements project.ProjectRepository: read-only access
// to project membership for claims assembly. Project lifecycle (create,
// rename, delete) is a host-application concern against the same table.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ListByUser retrieves all projects a user has access to, via a
// client-scoped role.Assignment naming the project as scope_context_id.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*project.Project, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT DISTINCT p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at, p.deleted_at
		FROM projects p
		INNER JOIN rbac_assignments a ON p.id::text = a.scope_context_id::text
		WHERE a.user_id = $1 AND a.scope = 'client' AND p.deleted_at IS NULL
	`, userID)

	if err != nil {
		return nil, fmt.Errorf("failed to list user projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project

	for rows.Next() {
		var p project.Project
		var deletedAt sql.NullTime

		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.OwnerID,
			&p.CreatedAt, &p.UpdatedAt, &deletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		if deletedAt.Valid {
			p.DeletedAt = &deletedAt.Time
		}

		projects = append(projects, &p)
	}

	return projects, nil
}
