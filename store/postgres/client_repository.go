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
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/oidc-core/client"
)

// ClientRepository implements client.Repository.
type ClientRepository struct {
	db *DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// clientRow is the wire shape persisted for one ClientInfo. The policy
// fields that have no natural scalar column (response type sets, refresh
// policy, back-channel logout config) are stored as a single JSON blob
// alongside the indexable columns used for lookups.
type clientRow struct {
	ResponseTypes    []client.ResponseTypeSet        `json:"response_types"`
	RefreshPolicy    client.RefreshTokenPolicy       `json:"refresh_policy"`
	PKCERequired     *bool                           `json:"pkce_required,omitempty"`
	PlainPKCEAllowed bool                            `json:"plain_pkce_allowed"`
	OfflineAllowed   *bool                           `json:"offline_access_allowed,omitempty"`
	BackChannel      *client.BackChannelLogoutConfig `json:"back_channel_logout,omitempty"`
	FrontChannelURI  string                          `json:"front_channel_logout_uri,omitempty"`
	AccessTokenAlg   string                          `json:"access_token_signed_response_alg,omitempty"`
	IDTokenAlg       string                          `json:"id_token_signed_response_alg"`
	KeyManagementAlg string                          `json:"key_management_alg"`
	ForceClaims      bool                            `json:"force_user_claims_in_id_token"`
}

func toRow(c *client.ClientInfo) clientRow {
	return clientRow{
		ResponseTypes:    c.AllowedResponseTypes,
		RefreshPolicy:    c.RefreshTokenPolicy,
		PKCERequired:     c.PKCERequired,
		PlainPKCEAllowed: c.PlainPKCEAllowed,
		OfflineAllowed:   c.OfflineAccessAllowed,
		BackChannel:      c.BackChannelLogout,
		FrontChannelURI:  c.FrontChannelLogoutURI,
		AccessTokenAlg:   c.AccessTokenSignedResponseAlgorithm,
		IDTokenAlg:       c.IdentityTokenSignedResponseAlgorithm,
		KeyManagementAlg: c.KeyManagementAlgorithm,
		ForceClaims:      c.ForceUserClaimsInIdentityToken,
	}
}

func (row clientRow) applyTo(c *client.ClientInfo) {
	c.AllowedResponseTypes = row.ResponseTypes
	c.RefreshTokenPolicy = row.RefreshPolicy
	c.PKCERequired = row.PKCERequired
	c.PlainPKCEAllowed = row.PlainPKCEAllowed
	c.OfflineAccessAllowed = row.OfflineAllowed
	c.BackChannelLogout = row.BackChannel
	c.FrontChannelLogoutURI = row.FrontChannelURI
	c.AccessTokenSignedResponseAlgorithm = row.AccessTokenAlg
	c.IdentityTokenSignedResponseAlgorithm = row.IDTokenAlg
	c.KeyManagementAlgorithm = row.KeyManagementAlg
	c.ForceUserClaimsInIdentityToken = row.ForceClaims
}

// Create creates a new OAuth2/OIDC client.
func (r *ClientRepository) Create(ctx context.Context, c *client.ClientInfo) error {
	redirectURIs, err := json.Marshal(c.RedirectURIs)
	if err != nil {
		return fmt.Errorf("failed to marshal redirect URIs: %w", err)
	}
	postLogoutURIs, err := json.Marshal(c.PostLogoutRedirectURIs)
	if err != nil {
		return fmt.Errorf("failed to marshal post_logout_redirect_uris: %w", err)
	}
	allowedScopes, err := json.Marshal(c.AllowedScopes)
	if err != nil {
		return fmt.Errorf("failed to marshal allowed scopes: %w", err)
	}
	secretHashes, err := json.Marshal(c.ClientSecretHashes)
	if err != nil {
		return fmt.Errorf("failed to marshal client secret hashes: %w", err)
	}
	policyJSON, err := json.Marshal(toRow(c))
	if err != nil {
		return fmt.Errorf("failed to marshal client policy: %w", err)
	}

	var ownerID sql.NullString
	if c.OwnerID != "" {
		ownerID = sql.NullString{String: c.OwnerID, Valid: true}
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	_, err = r.db.pool.Exec(ctx, `
		INSERT INTO oauth2_clients (
			id, client_id, tenant_id, client_secret_hashes, client_name, client_uri, logo_uri,
			redirect_uris, post_logout_redirect_uris, allowed_scopes,
			token_endpoint_auth_method, access_token_expires_in, identity_token_expires_in,
			policy,
			owner_id, is_trusted, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		c.ID, c.ClientID, c.TenantID, secretHashes, c.ClientName, c.ClientURI, c.LogoURI,
		redirectURIs, postLogoutURIs, allowedScopes,
		c.TokenEndpointAuthMethod, int64(c.AccessTokenExpiresIn), int64(c.IdentityTokenExpiresIn),
		policyJSON,
		ownerID, c.IsTrusted, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

func (r *ClientRepository) scanClient(row pgx.Row) (*client.ClientInfo, error) {
	var c client.ClientInfo
	var redirectURIsJSON, postLogoutURIsJSON, allowedScopesJSON, secretHashesJSON, policyJSON []byte
	var clientURI, logoURI, ownerID sql.NullString
	var deletedAt sql.NullTime
	var accessTTL, idTTL int64

	err := row.Scan(
		&c.ID, &c.ClientID, &c.TenantID, &secretHashesJSON, &c.ClientName, &clientURI, &logoURI,
		&redirectURIsJSON, &postLogoutURIsJSON, &allowedScopesJSON,
		&c.TokenEndpointAuthMethod, &accessTTL, &idTTL,
		&policyJSON,
		&ownerID, &c.IsTrusted, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, client.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	if err := json.Unmarshal(redirectURIsJSON, &c.RedirectURIs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal redirect URIs: %w", err)
	}
	if err := json.Unmarshal(postLogoutURIsJSON, &c.PostLogoutRedirectURIs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post_logout_redirect_uris: %w", err)
	}
	if err := json.Unmarshal(allowedScopesJSON, &c.AllowedScopes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allowed scopes: %w", err)
	}
	if err := json.Unmarshal(secretHashesJSON, &c.ClientSecretHashes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client secret hashes: %w", err)
	}
	var policy clientRow
	if err := json.Unmarshal(policyJSON, &policy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client policy: %w", err)
	}
	policy.applyTo(&c)

	c.AccessTokenExpiresIn = time.Duration(accessTTL)
	c.IdentityTokenExpiresIn = time.Duration(idTTL)

	if clientURI.Valid {
		c.ClientURI = clientURI.String
	}
	if logoURI.Valid {
		c.LogoURI = logoURI.String
	}
	if ownerID.Valid {
		c.OwnerID = ownerID.String
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}

	return &c, nil
}

// GetByClientID retrieves a client by client_id and tenant_id.
func (r *ClientRepository) GetByClientID(ctx context.Context, tenantID string, clientID string) (*client.ClientInfo, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT
			id, client_id, tenant_id, client_secret_hashes, client_name, client_uri, logo_uri,
			redirect_uris, post_logout_redirect_uris, allowed_scopes,
			token_endpoint_auth_method, access_token_expires_in, identity_token_expires_in,
			policy,
			owner_id, is_trusted, is_active, created_at, updated_at, deleted_at
		FROM oauth2_clients
		WHERE client_id = $2 AND ($1 = '' OR tenant_id::text = $1) AND deleted_at IS NULL
	`, tenantID, clientID)
	return r.scanClient(row)
}

// GetByID retrieves a client by tenant_id and internal ID.
func (r *ClientRepository) GetByID(ctx context.Context, tenantID string, id string) (*client.ClientInfo, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT
			id, client_id, tenant_id, client_secret_hashes, client_name, client_uri, logo_uri,
			redirect_uris, post_logout_redirect_uris, allowed_scopes,
			token_endpoint_auth_method, access_token_expires_in, identity_token_expires_in,
			policy,
			owner_id, is_trusted, is_active, created_at, updated_at, deleted_at
		FROM oauth2_clients
		WHERE id = $2 AND tenant_id = $1 AND deleted_at IS NULL
	`, tenantID, id)
	return r.scanClient(row)
}

// Update updates client information.
func (r *ClientRepository) Update(ctx context.Context, c *client.ClientInfo) error {
	redirectURIs, err := json.Marshal(c.RedirectURIs)
	if err != nil {
		return fmt.Errorf("failed to marshal redirect URIs: %w", err)
	}
	postLogoutURIs, err := json.Marshal(c.PostLogoutRedirectURIs)
	if err != nil {
		return fmt.Errorf("failed to marshal post_logout_redirect_uris: %w", err)
	}
	allowedScopes, err := json.Marshal(c.AllowedScopes)
	if err != nil {
		return fmt.Errorf("failed to marshal allowed scopes: %w", err)
	}
	policyJSON, err := json.Marshal(toRow(c))
	if err != nil {
		return fmt.Errorf("failed to marshal client policy: %w", err)
	}

	result, err := r.db.pool.Exec(ctx, `
		UPDATE oauth2_clients SET
			client_name = $2,
			client_uri = $3,
			logo_uri = $4,
			redirect_uris = $5,
			post_logout_redirect_uris = $6,
			allowed_scopes = $7,
			token_endpoint_auth_method = $8,
			access_token_expires_in = $9,
			identity_token_expires_in = $10,
			policy = $11,
			is_trusted = $12,
			is_active = $13,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $14 AND deleted_at IS NULL
	`,
		c.ID, c.ClientName, c.ClientURI, c.LogoURI,
		redirectURIs, postLogoutURIs, allowedScopes,
		c.TokenEndpointAuthMethod, int64(c.AccessTokenExpiresIn), int64(c.IdentityTokenExpiresIn),
		policyJSON,
		c.IsTrusted, c.IsActive, c.TenantID,
	)

	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	if result.RowsAffected() == 0 {
		return client.ErrClientNotFound
	}

	return nil
}

// Delete soft-deletes a client by tenant_id and internal ID.
func (r *ClientRepository) Delete(ctx context.Context, tenantID string, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE oauth2_clients SET deleted_at = $3
		WHERE id = $2 AND tenant_id = $1 AND deleted_at IS NULL
	`, tenantID, id, time.Now())

	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	if result.RowsAffected() == 0 {
		return client.ErrClientNotFound
	}

	return nil
}

// ListByOwner retrieves all clients for an owner.
func (r *ClientRepository) ListByOwner(ctx context.Context, ownerID string) ([]*client.ClientInfo, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT
			id, client_id, tenant_id, client_secret_hashes, client_name, client_uri, logo_uri,
			redirect_uris, post_logout_redirect_uris, allowed_scopes,
			token_endpoint_auth_method, access_token_expires_in, identity_token_expires_in,
			policy,
			owner_id, is_trusted, is_active, created_at, updated_at, deleted_at
		FROM oauth2_clients
		WHERE owner_id = $1 AND deleted_at IS NULL
	`, ownerID)

	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*client.ClientInfo
	for rows.Next() {
		c, err := r.scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return clients, nil
}

// ListByTenant retrieves all clients for a tenant.
func (r *ClientRepository) ListByTenant(ctx context.Context, tenantID string) ([]*client.ClientInfo, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT
			id, client_id, tenant_id, client_secret_hashes, client_name, client_uri, logo_uri,
			redirect_uris, post_logout_redirect_uris, allowed_scopes,
			token_endpoint_auth_method, access_token_expires_in, identity_token_expires_in,
			policy,
			owner_id, is_trusted, is_active, created_at, updated_at, deleted_at
		FROM oauth2_clients
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, tenantID)

	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*client.ClientInfo
	for rows.Next() {
		c, err := r.scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	return clients, nil
}

// DeleteByTenantID soft-deletes all clients belonging to a tenant.
func (r *ClientRepository) DeleteByTenantID(ctx context.Context, tenantID string) error {
	_, err := r.db.pool.Exec(ctx, `
		UPDATE oauth2_clients SET deleted_at = NOW()
		WHERE tenant_id = $1 AND deleted_at IS NULL
	`, tenantID)

	if err != nil {
		return fmt.Errorf("failed to delete clients by tenant: %w", err)
	}
	return nil
}
