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

package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/opentrusty/oidc-core/audit"
	"github.com/opentrusty/oidc-core/id"
)

// Service provides OAuth2/OIDC client management business logic.
//
// Purpose: Implementation of client registration, validation, and lifecycle rules.
// Domain: OAuth2
type Service struct {
	clientRepo  Repository
	auditLogger audit.Logger
	ids         id.Generator
}

// NewService creates a new client management service.
//
// Purpose: Constructor for the client management service.
// Domain: OAuth2
// Audited: No
// Errors: None
func NewService(clientRepo Repository, auditLogger audit.Logger, ids id.Generator) *Service {
	return &Service{
		clientRepo:  clientRepo,
		auditLogger: auditLogger,
		ids:         ids,
	}
}

// RegisterClient validates and creates a new OAuth2/OIDC client.
//
// Purpose: Enforces system rules on new client registrations and persists them.
// Domain: OAuth2
// Audited: Yes (ClientCreated)
// Errors: ErrInvalidClientURI, ErrInvalidRedirectURI, System errors
func (s *Service) RegisterClient(ctx context.Context, tenantID, userID string, c *ClientInfo) (*ClientInfo, error) {
	if err := s.validateClient(c); err != nil {
		return nil, err
	}

	if c.ID == "" {
		c.ID = s.ids.NewID()
	}
	if c.ClientID == "" {
		c.ClientID = s.ids.NewID()
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()

	if err := s.clientRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeClientCreated,
		TenantID:   tenantID,
		ActorID:    userID,
		Resource:   audit.ResourceClient,
		TargetName: c.ClientName,
		TargetID:   c.ClientID,
		Metadata: map[string]any{
			"client_id":   c.ClientID,
			"client_name": c.ClientName,
		},
	})

	return c, nil
}

// ListClients retrieves all clients for a tenant.
func (s *Service) ListClients(ctx context.Context, tenantID string) ([]*ClientInfo, error) {
	return s.clientRepo.ListByTenant(ctx, tenantID)
}

// GetClient retrieves a client by internal ID.
func (s *Service) GetClient(ctx context.Context, tenantID, clientID string) (*ClientInfo, error) {
	return s.clientRepo.GetByID(ctx, tenantID, clientID)
}

// GetClientByClientID retrieves a client by external client_id. This is
// the lookup ClientValidator uses (authorize.ClientInfoProvider).
func (s *Service) GetClientByClientID(ctx context.Context, tenantID, clientID string) (*ClientInfo, error) {
	return s.clientRepo.GetByClientID(ctx, tenantID, clientID)
}

// DeleteClient deletes a client.
func (s *Service) DeleteClient(ctx context.Context, tenantID, id string, actorID string) error {
	c, err := s.clientRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.clientRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeClientDeleted,
		TenantID:   tenantID,
		ActorID:    actorID,
		Resource:   audit.ResourceClient,
		TargetName: c.ClientName,
		TargetID:   c.ClientID,
		Metadata: map[string]any{
			"client_id": c.ClientID,
		},
	})
	return nil
}

// UpdateClient updates an existing client.
func (s *Service) UpdateClient(ctx context.Context, c *ClientInfo, actorID string) error {
	if err := s.validateClient(c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	if err := s.clientRepo.Update(ctx, c); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeClientUpdated,
		TenantID:   c.TenantID,
		ActorID:    actorID,
		Resource:   audit.ResourceClient,
		TargetName: c.ClientName,
		TargetID:   c.ClientID,
		Metadata: map[string]any{
			"client_id": c.ClientID,
		},
	})
	return nil
}

func (s *Service) validateClient(c *ClientInfo) error {
	if c.ClientURI != "" {
		if _, err := url.ParseRequestURI(c.ClientURI); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidClientURI, err)
		}
	}

	for _, uri := range c.RedirectURIs {
		if _, err := url.ParseRequestURI(uri); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidRedirectURI, uri)
		}
	}
	for _, uri := range c.PostLogoutRedirectURIs {
		if _, err := url.ParseRequestURI(uri); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidRedirectURI, uri)
		}
	}
	return nil
}
