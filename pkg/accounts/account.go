package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// Account is a tenant-scoped or personal account
type Account struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	Slug           string                `json:"slug"`
	TenantID       *uuid.UUID            `json:"tenantId,omitempty"`
	IsActive       bool                  `json:"isActive"`
	IsChecked      bool                  `json:"isChecked"`
	IsArchived     bool                  `json:"isArchived"`
	IsSubscription bool                  `json:"isSubscription"`
	IsManager      bool                  `json:"isManager"`
	IsStaff        bool                  `json:"isStaff"`
	VerboseStatus  profile.VerboseStatus `json:"verboseStatus"`
	Created        time.Time             `json:"created"`
	Updated        *time.Time            `json:"updated,omitempty"`
}

// InTenant reports whether the account belongs to tenantID
func (a *Account) InTenant(tenantID uuid.UUID) bool {
	return a.TenantID != nil && *a.TenantID == tenantID
}

// Target is the view the staff guard inspects
func (a *Account) Target() profile.TargetAccount {
	return profile.TargetAccount{ID: a.ID, IsStaff: a.IsStaff, IsManager: a.IsManager}
}

func (a *Account) deriveStatus() {
	a.VerboseStatus = profile.DeriveVerboseStatus(a.IsActive, a.IsChecked, a.IsArchived)
}

// GuestUser is an email invited to an account under a guest role
type GuestUser struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	RoleID      uuid.UUID `json:"guestRoleId"`
	AccountID   uuid.UUID `json:"accountId"`
	WasVerified bool      `json:"wasVerified"`
	Created     time.Time `json:"created"`
}

// Repository persists accounts. Lookups and writes restricted by a
// RelatedAccounts set treat accounts outside it as missing.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	Get(ctx context.Context, id uuid.UUID, related profile.RelatedAccounts) (*Account, error)
	UpdateName(ctx context.Context, tenantID, id uuid.UUID, name string, related profile.RelatedAccounts) (*Account, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID, related profile.RelatedAccounts) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) (*Account, error)
	// OwnerEmails lists the emails of the owners signed in through account id
	OwnerEmails(ctx context.Context, id uuid.UUID) ([]string, error)
}

// GuestRepository persists guest invitations
type GuestRepository interface {
	// GetOrCreate links guest to account, reporting NotCreated when the
	// invitation already exists
	GetOrCreate(ctx context.Context, guest GuestUser) (storage.CreateResponse[GuestUser], error)
	// Remove unlinks a guest from account; storage.ErrNotFound when no link exists
	Remove(ctx context.Context, guest GuestUser) error
}
