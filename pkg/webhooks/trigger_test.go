package webhooks

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_Method(t *testing.T) {
	want := map[Trigger]string{
		TriggerCreateSubscriptionAccount: http.MethodPost,
		TriggerCreateUserAccount:         http.MethodPost,
		TriggerInviteGuestAccount:        http.MethodPost,
		TriggerUpdateSubscriptionAccount: http.MethodPut,
		TriggerUpdateUserAccount:         http.MethodPut,
		TriggerDeleteSubscriptionAccount: http.MethodDelete,
		TriggerDeleteUserAccount:         http.MethodDelete,
		TriggerUninviteGuestAccount:      http.MethodDelete,
	}
	require.Len(t, AllTriggers(), len(want))
	for _, tr := range AllTriggers() {
		assert.Equal(t, want[tr], tr.Method(), tr.String())
	}
	assert.Empty(t, Trigger("explode").Method())
}

func TestTrigger_TextRoundTrip(t *testing.T) {
	for _, tr := range AllTriggers() {
		parsed, err := ParseTrigger(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, parsed)
	}

	var hook struct {
		Trigger Trigger `json:"trigger"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"trigger":"nope"}`), &hook))
	require.NoError(t, json.Unmarshal([]byte(`{"trigger":"inviteGuestAccount"}`), &hook))
	assert.Equal(t, TriggerInviteGuestAccount, hook.Trigger)
}

func TestTrigger_Scan(t *testing.T) {
	var tr Trigger
	require.NoError(t, tr.Scan([]byte("deleteUserAccount")))
	assert.Equal(t, TriggerDeleteUserAccount, tr)
	require.NoError(t, tr.Scan("updateUserAccount"))
	assert.Equal(t, TriggerUpdateUserAccount, tr)
	assert.Error(t, tr.Scan(42))

	_, err := Trigger("bogus").Value()
	assert.Error(t, err)
}

func TestTrigger_ZeroValueEncodesEmpty(t *testing.T) {
	out, err := json.Marshal(PropagationRecord{Status: http.StatusOK})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"trigger":""`)

	_, err = json.Marshal(struct {
		Trigger Trigger `json:"trigger"`
	}{Trigger: "bogus"})
	assert.Error(t, err)
}
