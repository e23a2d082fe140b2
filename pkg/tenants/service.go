package tenants

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Service implements the tenant use cases
type Service struct {
	repo    Repository
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a new tenant service
func NewService(repo Repository, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

// UpdateNameAndDescription lets a tenant owner rename or redescribe the tenant
func (s *Service) UpdateNameAndDescription(ctx context.Context, p *profile.Profile, tenantID uuid.UUID, name, description *string) (*Tenant, error) {
	err := profile.RequireTenantOwnership(p, tenantID)
	s.metrics.RecordAuthorization(profile.CheckRequireTenantOwnership, err)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, storage.InvalidInput("tenant name cannot be blank")
		}
		name = &trimmed
	}
	if name == nil && description == nil {
		return nil, storage.InvalidInput("nothing to update")
	}

	tenant, err := s.repo.UpdateNameAndDescription(ctx, tenantID, name, description)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("tenant_id", tenantID.String()).Info("Tenant updated")
	return tenant, nil
}

// List pages through every tenant; managers and staff only
func (s *Service) List(ctx context.Context, p *profile.Profile, filter ListFilter) (storage.Page[Tenant], error) {
	err := profile.RequireAdmin(p)
	s.metrics.RecordAuthorization(profile.CheckRequireAdmin, err)
	if err != nil {
		return storage.Page[Tenant]{}, err
	}
	filter.Name = strings.TrimSpace(filter.Name)
	return s.repo.List(ctx, filter)
}
