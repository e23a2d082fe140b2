package webhooks

import (
	"fmt"

	"github.com/google/uuid"
)

// DispatchError describes why a single hook call failed.
// It is logged and recorded, never returned from Dispatch.
type DispatchError struct {
	HookID uuid.UUID
	Stage  string
	Err    error
}

// Dispatch stages
const (
	StageDecrypt = "decrypt"
	StageRequest = "request"
	StageConnect = "connect"
	StagePanic   = "panic"
)

func (e *DispatchError) Error() string {
	return fmt.Sprintf("webhook %s failed at %s: %v", e.HookID, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
