package accounts

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/guestroles"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
	"github.com/platinummonkey/tenancy/pkg/webhooks"
)

// Propagator fans a payload out to the hooks registered for a trigger
type Propagator interface {
	Propagate(ctx context.Context, trigger webhooks.Trigger, payload interface{}) []webhooks.HookResponse
}

// GrantLister lists the grants held by an email
type GrantLister interface {
	ListLicensedResources(ctx context.Context, email string, filter profile.LicensedResourceFilter) ([]profile.LicensedResource, error)
}

// ProfileInvalidator drops cached profiles whose grants changed
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, email string)
}

// Dependencies groups what the account service talks to.
// Profiles may be nil.
type Dependencies struct {
	Accounts Repository
	Guests   GuestRepository
	Roles    guestroles.Getter
	Grants   GrantLister
	Hooks    Propagator
	Profiles ProfileInvalidator
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

// Service implements the account use cases
type Service struct {
	Dependencies
}

// NewService creates a new account service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = observability.NewNopLogger()
	}
	return &Service{Dependencies: deps}
}

var (
	subscriptionWriters = permissions.Requirements{
		{Role: permissions.TenantManager, Level: permissions.Write},
		{Role: permissions.SubscriptionsManager, Level: permissions.Write},
	}
	guestRoles = []permissions.ActorRole{
		permissions.TenantOwner,
		permissions.TenantManager,
		permissions.SubscriptionsManager,
	}
)

func (s *Service) scoped(p *profile.Profile, tenantID uuid.UUID, reqs permissions.Requirements) (profile.RelatedAccounts, error) {
	related, err := p.OnTenant(tenantID).Require(reqs)
	s.Metrics.RecordAuthorization(profile.CheckRequireScoped, err)
	return related, err
}

// CreateSubscriptionAccount registers an approved subscription account in tenantID
func (s *Service) CreateSubscriptionAccount(ctx context.Context, p *profile.Profile, tenantID uuid.UUID, name string) (webhooks.PropagationResponse[Account], error) {
	var none webhooks.PropagationResponse[Account]
	if _, err := s.scoped(p, tenantID, subscriptionWriters); err != nil {
		return none, err
	}

	name = strings.TrimSpace(name)
	slug := guestroles.Slugify(name)
	if slug == "" {
		return none, storage.InvalidInput("account name is required")
	}

	account := Account{
		Name:           name,
		Slug:           slug,
		TenantID:       &tenantID,
		IsActive:       true,
		IsChecked:      true,
		IsSubscription: true,
	}
	if err := s.Accounts.Create(ctx, &account); err != nil {
		return none, err
	}

	s.Logger.WithFields(map[string]interface{}{
		"account_id": account.ID.String(),
		"tenant_id":  tenantID.String(),
	}).Info("Subscription account created")
	return s.propagate(ctx, webhooks.TriggerCreateSubscriptionAccount, account), nil
}

// UpdateSubscriptionAccountName renames an account the caller may write
func (s *Service) UpdateSubscriptionAccountName(ctx context.Context, p *profile.Profile, tenantID, accountID uuid.UUID, name string) (webhooks.PropagationResponse[Account], error) {
	var none webhooks.PropagationResponse[Account]
	related, err := s.scoped(p, tenantID, subscriptionWriters)
	if err != nil {
		return none, err
	}

	name = strings.TrimSpace(name)
	if guestroles.Slugify(name) == "" {
		return none, storage.InvalidInput("account name is required")
	}

	account, err := s.Accounts.UpdateName(ctx, tenantID, accountID, name, related)
	if err != nil {
		return none, err
	}
	return s.propagate(ctx, webhooks.TriggerUpdateSubscriptionAccount, *account), nil
}

// DeleteSubscriptionAccount removes an account the caller may write
func (s *Service) DeleteSubscriptionAccount(ctx context.Context, p *profile.Profile, tenantID, accountID uuid.UUID) (webhooks.PropagationResponse[Account], error) {
	var none webhooks.PropagationResponse[Account]
	related, err := s.scoped(p, tenantID, permissions.WithLevel(permissions.Write, permissions.TenantManager))
	if err != nil {
		return none, err
	}

	account, err := s.Accounts.Get(ctx, accountID, related)
	if err != nil {
		return none, err
	}
	if !account.InTenant(tenantID) || !account.IsSubscription {
		return none, storage.NotFound("account", accountID.String())
	}
	if err := s.Accounts.Delete(ctx, tenantID, accountID, related); err != nil {
		return none, err
	}

	s.Logger.WithField("account_id", accountID.String()).Info("Subscription account deleted")
	return s.propagate(ctx, webhooks.TriggerDeleteSubscriptionAccount, *account), nil
}

// ChangeArchivalStatus archives or restores any account an admin outranks
func (s *Service) ChangeArchivalStatus(ctx context.Context, p *profile.Profile, accountID uuid.UUID, archived bool) (*Account, error) {
	err := profile.RequireAdmin(p)
	s.Metrics.RecordAuthorization(profile.CheckRequireAdmin, err)
	if err != nil {
		return nil, err
	}

	target, err := s.Accounts.Get(ctx, accountID, profile.AllAccounts())
	if err != nil {
		return nil, err
	}
	err = profile.GuardStaffTarget(p, target.Target())
	s.Metrics.RecordAuthorization(profile.CheckGuardStaffTarget, err)
	if err != nil {
		return nil, err
	}

	account, err := s.Accounts.SetArchived(ctx, accountID, archived)
	if err != nil {
		return nil, err
	}

	// owners keep a cached profile until it expires; drop it so the new status applies now
	emails, err := s.Accounts.OwnerEmails(ctx, accountID)
	if err != nil {
		s.Logger.WithError(err).WithField("account_id", accountID.String()).Warn("Failed to list account owners for profile invalidation")
	}
	for _, email := range emails {
		s.invalidate(ctx, email)
	}
	return account, nil
}

// GuestUser invites email to a verified subscription account under roleID
func (s *Service) GuestUser(ctx context.Context, p *profile.Profile, tenantID uuid.UUID, email string, roleID, accountID uuid.UUID) (webhooks.PropagationResponse[storage.CreateResponse[GuestUser]], error) {
	var none webhooks.PropagationResponse[storage.CreateResponse[GuestUser]]
	guest, err := s.prepareGuest(ctx, p, tenantID, email, roleID, accountID)
	if err != nil {
		return none, err
	}

	account, err := s.Accounts.Get(ctx, accountID, guest.related)
	if err != nil {
		return none, err
	}
	if !account.InTenant(tenantID) {
		return none, storage.NotFound("account", accountID.String())
	}
	if !account.IsSubscription {
		return none, storage.InvalidInput("only subscription accounts can receive guests")
	}
	if account.VerboseStatus != profile.StatusActive {
		return none, storage.InvalidInput("account %s is %s; only active accounts can receive guests", accountID, account.VerboseStatus)
	}
	if _, err := s.Roles.Get(ctx, roleID); err != nil {
		return none, err
	}

	res, err := s.Guests.GetOrCreate(ctx, guest.user)
	if err != nil {
		return none, err
	}
	if !res.Created {
		return webhooks.PropagationResponse[storage.CreateResponse[GuestUser]]{Payload: res}, nil
	}

	s.invalidate(ctx, guest.user.Email)
	return webhooks.PropagationResponse[storage.CreateResponse[GuestUser]]{
		Payload:      res,
		Propagations: s.Hooks.Propagate(ctx, webhooks.TriggerInviteGuestAccount, res.Record),
	}, nil
}

// UninviteGuest revokes an invitation created by GuestUser
func (s *Service) UninviteGuest(ctx context.Context, p *profile.Profile, tenantID uuid.UUID, email string, roleID, accountID uuid.UUID) (webhooks.PropagationResponse[GuestUser], error) {
	var none webhooks.PropagationResponse[GuestUser]
	guest, err := s.prepareGuest(ctx, p, tenantID, email, roleID, accountID)
	if err != nil {
		return none, err
	}

	account, err := s.Accounts.Get(ctx, accountID, guest.related)
	if err != nil {
		return none, err
	}
	if !account.InTenant(tenantID) {
		return none, storage.NotFound("account", accountID.String())
	}
	if err := s.Guests.Remove(ctx, guest.user); err != nil {
		return none, err
	}

	s.invalidate(ctx, guest.user.Email)
	return s.propagateGuest(ctx, webhooks.TriggerUninviteGuestAccount, guest.user), nil
}

// ListLicensedAccountsOfEmail lists the grants email holds on tenantID,
// limited to the accounts the caller may read
func (s *Service) ListLicensedAccountsOfEmail(ctx context.Context, p *profile.Profile, tenantID uuid.UUID, email string, filter profile.LicensedResourceFilter) ([]profile.LicensedResource, error) {
	related, err := s.scoped(p, tenantID, permissions.WithLevel(permissions.Read, guestRoles...))
	if err != nil {
		return nil, err
	}
	address, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	filter.TenantID = &tenantID
	filter.Related = &related
	return s.Grants.ListLicensedResources(ctx, address, filter)
}

type preparedGuest struct {
	user    GuestUser
	related profile.RelatedAccounts
}

func (s *Service) prepareGuest(ctx context.Context, p *profile.Profile, tenantID uuid.UUID, email string, roleID, accountID uuid.UUID) (preparedGuest, error) {
	related, err := s.scoped(p, tenantID, permissions.WithLevel(permissions.Write, guestRoles...))
	if err != nil {
		return preparedGuest{}, err
	}
	address, err := normalizeEmail(email)
	if err != nil {
		return preparedGuest{}, err
	}
	return preparedGuest{
		user:    GuestUser{Email: address, RoleID: roleID, AccountID: accountID},
		related: related,
	}, nil
}

func (s *Service) invalidate(ctx context.Context, email string) {
	if s.Profiles != nil {
		s.Profiles.Invalidate(ctx, email)
	}
}

func (s *Service) propagate(ctx context.Context, trigger webhooks.Trigger, account Account) webhooks.PropagationResponse[Account] {
	return webhooks.PropagationResponse[Account]{
		Payload:      account,
		Propagations: s.Hooks.Propagate(ctx, trigger, account),
	}
}

func (s *Service) propagateGuest(ctx context.Context, trigger webhooks.Trigger, guest GuestUser) webhooks.PropagationResponse[GuestUser] {
	return webhooks.PropagationResponse[GuestUser]{
		Payload:      guest,
		Propagations: s.Hooks.Propagate(ctx, trigger, guest),
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", storage.InvalidInput("invalid email %q", raw)
	}
	return strings.ToLower(addr.Address), nil
}
