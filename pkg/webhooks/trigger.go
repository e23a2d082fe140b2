package webhooks

import (
	"database/sql/driver"
	"fmt"
	"net/http"
)

// Trigger is a domain event kind that webhooks subscribe to
type Trigger string

const (
	TriggerCreateSubscriptionAccount Trigger = "createSubscriptionAccount"
	TriggerUpdateSubscriptionAccount Trigger = "updateSubscriptionAccount"
	TriggerDeleteSubscriptionAccount Trigger = "deleteSubscriptionAccount"
	TriggerCreateUserAccount         Trigger = "createUserAccount"
	TriggerUpdateUserAccount         Trigger = "updateUserAccount"
	TriggerDeleteUserAccount         Trigger = "deleteUserAccount"
	TriggerInviteGuestAccount        Trigger = "inviteGuestAccount"
	TriggerUninviteGuestAccount      Trigger = "uninviteGuestAccount"
)

// AllTriggers returns every known trigger
func AllTriggers() []Trigger {
	return []Trigger{
		TriggerCreateSubscriptionAccount,
		TriggerUpdateSubscriptionAccount,
		TriggerDeleteSubscriptionAccount,
		TriggerCreateUserAccount,
		TriggerUpdateUserAccount,
		TriggerDeleteUserAccount,
		TriggerInviteGuestAccount,
		TriggerUninviteGuestAccount,
	}
}

// Method returns the HTTP verb used when propagating the trigger.
// Creations and invitations POST, updates PUT, deletions and uninvitations DELETE.
func (t Trigger) Method() string {
	switch t {
	case TriggerCreateSubscriptionAccount, TriggerCreateUserAccount, TriggerInviteGuestAccount:
		return http.MethodPost
	case TriggerUpdateSubscriptionAccount, TriggerUpdateUserAccount:
		return http.MethodPut
	case TriggerDeleteSubscriptionAccount, TriggerDeleteUserAccount, TriggerUninviteGuestAccount:
		return http.MethodDelete
	default:
		return ""
	}
}

// Valid reports whether t is a known trigger
func (t Trigger) Valid() bool {
	return t.Method() != ""
}

func (t Trigger) String() string {
	return string(t)
}

// ParseTrigger converts a stored or submitted trigger name
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown webhook trigger %q", s)
	}
	return t, nil
}

// MarshalText implements encoding.TextMarshaler; the zero value encodes as ""
func (t Trigger) MarshalText() ([]byte, error) {
	if t != "" && !t.Valid() {
		return nil, fmt.Errorf("unknown webhook trigger %q", string(t))
	}
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Trigger) UnmarshalText(text []byte) error {
	parsed, err := ParseTrigger(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer
func (t Trigger) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown webhook trigger %q", string(t))
	}
	return string(t), nil
}

// Scan implements sql.Scanner
func (t *Trigger) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalText([]byte(v))
	case []byte:
		return t.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Trigger", src)
	}
}
