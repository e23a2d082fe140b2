package guestroles

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Service manages guest roles on behalf of guest managers
type Service struct {
	repo    Repository
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a new guest role service
func NewService(repo Repository, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

func (s *Service) authorize(p *profile.Profile, level permissions.Level) error {
	err := profile.RequireAnyTenant(p, permissions.WithLevel(level, permissions.GuestManager))
	s.metrics.RecordAuthorization(profile.CheckRequireScoped, err)
	return err
}

// Create registers a role, or returns the existing one under the same name
func (s *Service) Create(ctx context.Context, p *profile.Profile, name, description string, level permissions.Level) (storage.CreateResponse[GuestRole], error) {
	if err := s.authorize(p, permissions.Write); err != nil {
		return storage.CreateResponse[GuestRole]{}, err
	}

	name = strings.TrimSpace(name)
	slug := Slugify(name)
	if slug == "" {
		return storage.CreateResponse[GuestRole]{}, storage.InvalidInput("guest role name is required")
	}
	if !level.Valid() {
		return storage.CreateResponse[GuestRole]{}, storage.InvalidInput("invalid permission level")
	}

	res, err := s.repo.GetOrCreate(ctx, GuestRole{
		Name:        name,
		Slug:        slug,
		Description: description,
		Permission:  level,
	})
	if err != nil {
		return res, err
	}
	if res.Created {
		s.logger.WithField("guest_role", slug).Info("Guest role created")
	}
	return res, nil
}

// Delete removes a role and, through the schema, every guest invited under it
func (s *Service) Delete(ctx context.Context, p *profile.Profile, id uuid.UUID) error {
	if err := s.authorize(p, permissions.Write); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns roles whose name contains name
func (s *Service) List(ctx context.Context, p *profile.Profile, name string) ([]GuestRole, error) {
	if err := s.authorize(p, permissions.Read); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, strings.TrimSpace(name))
}
