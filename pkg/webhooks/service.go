package webhooks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/secrets"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// ReasonAlreadyExists is reported when a hook name is taken
const ReasonAlreadyExists = "Webhook already exists"

// RegisterInput describes a new hook; Secret carries a cleartext token
type RegisterInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url"`
	Trigger     Trigger `json:"trigger"`
	Secret      *Secret `json:"secret,omitempty"`
}

// UpdateInput changes the non-nil fields of a hook
type UpdateInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	URL         *string  `json:"url,omitempty"`
	Trigger     *Trigger `json:"trigger,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
	Secret      *Secret  `json:"secret,omitempty"`
}

// Service administers webhooks. Every operation requires a manager or staff
// caller, and every hook it returns is redacted.
type Service struct {
	repo    Repository
	codec   *secrets.Codec
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a new webhook service
func NewService(repo Repository, codec *secrets.Codec, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, codec: codec, logger: logger, metrics: metrics}
}

func (s *Service) authorize(p *profile.Profile) error {
	err := profile.RequireAdmin(p)
	s.metrics.RecordAuthorization(profile.CheckRequireAdmin, err)
	return err
}

// Register stores a new hook with its secret token encrypted
func (s *Service) Register(ctx context.Context, p *profile.Profile, in RegisterInput) (storage.CreateResponse[WebHook], error) {
	var none storage.CreateResponse[WebHook]
	if err := s.authorize(p); err != nil {
		return none, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return none, storage.InvalidInput("webhook name is required")
	}
	if err := validateURL(in.URL); err != nil {
		return none, err
	}
	if !in.Trigger.Valid() {
		return none, storage.InvalidInput("unknown webhook trigger %q", string(in.Trigger))
	}

	hook := WebHook{
		Name:        name,
		Description: in.Description,
		URL:         in.URL,
		Trigger:     in.Trigger,
		IsActive:    true,
	}
	if in.Secret != nil {
		sealed, err := s.sealSecret(in.Secret)
		if err != nil {
			return none, err
		}
		hook.Secret = sealed
	}

	if err := s.repo.Create(ctx, &hook); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return storage.NotCreated(s.existingByName(ctx, name), ReasonAlreadyExists), nil
		}
		return none, err
	}

	s.logger.WithFields(map[string]interface{}{
		"webhook_id": hook.ID.String(),
		"trigger":    hook.Trigger.String(),
	}).Info("Webhook registered")
	return storage.Created(hook.Redacted()), nil
}

// existingByName returns the redacted hook already registered under name,
// or a bare record carrying the name when it cannot be read back
func (s *Service) existingByName(ctx context.Context, name string) WebHook {
	hooks, err := s.repo.List(ctx, ListFilter{Name: name})
	if err != nil {
		s.logger.WithError(err).WithField("name", name).Warn("Failed to read conflicting webhook")
		return WebHook{Name: name}
	}
	for _, h := range hooks {
		if h.Name == name {
			return h.Redacted()
		}
	}
	return WebHook{Name: name}
}

// Update applies in to hook id; a new secret is re-encrypted
func (s *Service) Update(ctx context.Context, p *profile.Profile, id uuid.UUID, in UpdateInput) (*WebHook, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}

	hook, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, storage.InvalidInput("webhook name is required")
		}
		hook.Name = name
	}
	if in.Description != nil {
		hook.Description = *in.Description
	}
	if in.URL != nil {
		if err := validateURL(*in.URL); err != nil {
			return nil, err
		}
		hook.URL = *in.URL
	}
	if in.Trigger != nil {
		if !in.Trigger.Valid() {
			return nil, storage.InvalidInput("unknown webhook trigger %q", string(*in.Trigger))
		}
		hook.Trigger = *in.Trigger
	}
	if in.IsActive != nil {
		hook.IsActive = *in.IsActive
	}
	if in.Secret != nil {
		sealed, err := s.sealSecret(in.Secret)
		if err != nil {
			return nil, err
		}
		hook.Secret = sealed
	}

	if err := s.repo.Update(ctx, hook); err != nil {
		return nil, err
	}
	redacted := hook.Redacted()
	return &redacted, nil
}

// Get returns a redacted hook
func (s *Service) Get(ctx context.Context, p *profile.Profile, id uuid.UUID) (*WebHook, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	hook, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	redacted := hook.Redacted()
	return &redacted, nil
}

// List returns redacted hooks matching filter
func (s *Service) List(ctx context.Context, p *profile.Profile, filter ListFilter) ([]WebHook, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	if filter.Trigger != "" && !filter.Trigger.Valid() {
		return nil, storage.InvalidInput("unknown webhook trigger %q", string(filter.Trigger))
	}
	hooks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]WebHook, len(hooks))
	for i, h := range hooks {
		out[i] = h.Redacted()
	}
	return out, nil
}

// Delete removes a hook
func (s *Service) Delete(ctx context.Context, p *profile.Profile, id uuid.UUID) error {
	if err := s.authorize(p); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("webhook_id", id.String()).Info("Webhook deleted")
	return nil
}

func (s *Service) sealSecret(secret *Secret) (*Secret, error) {
	if err := secret.Validate(); err != nil {
		return nil, storage.InvalidInput("%v", err)
	}
	if s.codec == nil {
		return nil, errNoCodec
	}
	sealed, err := secret.Encrypt(s.codec)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	return sealed, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return storage.InvalidInput("invalid webhook url: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return storage.InvalidInput("webhook url must be an absolute http or https url")
	}
	return nil
}
