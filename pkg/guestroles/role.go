package guestroles

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/platinummonkey/tenancy/pkg/permissions"
	"github.com/platinummonkey/tenancy/pkg/storage"
)

// GuestRole is a named permission level that guests are invited under
type GuestRole struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Permission  permissions.Level `json:"permission"`
	Created     time.Time         `json:"created"`
	Updated     *time.Time        `json:"updated,omitempty"`
}

// Slugify lowercases name and collapses every run of non-alphanumerics to a dash
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Getter is what invitation flows need to confirm a role exists
type Getter interface {
	Get(ctx context.Context, id uuid.UUID) (*GuestRole, error)
}

// Repository persists guest roles. Names are unique; missing ids yield
// storage.ErrNotFound.
type Repository interface {
	Getter
	GetOrCreate(ctx context.Context, role GuestRole) (storage.CreateResponse[GuestRole], error)
	List(ctx context.Context, name string) ([]GuestRole, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
