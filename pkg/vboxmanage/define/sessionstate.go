package define

import (
	"fmt"
	"strconv"
)

// SessionState is the last state a session's virtual machine was known to
// be in. It is persisted in the session record as an integer, so the
// numeric values are part of the on-disk format and must not be reordered.
type SessionState int

const (
	// SessionStateMissing indicates the VM backing this session is gone
	// from the hypervisor. A session closed in this state is deleted.
	SessionStateMissing SessionState = iota
	// SessionStateAvailable indicates the session exists but no VM has
	// been provisioned for it yet.
	SessionStateAvailable
	// SessionStatePowerOff indicates the VM is registered but powered off.
	SessionStatePowerOff
	// SessionStateSaved indicates the VM was suspended to a saved state.
	SessionStateSaved
	// SessionStatePaused indicates the VM is loaded but paused.
	SessionStatePaused
	// SessionStateRunning indicates the VM is currently executing.
	SessionStateRunning
)

// String returns a user-facing representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionStateMissing:
		return "missing"
	case SessionStateAvailable:
		return "available"
	case SessionStatePowerOff:
		return "poweroff"
	case SessionStateSaved:
		return "saved"
	case SessionStatePaused:
		return "paused"
	case SessionStateRunning:
		return "running"
	}
	return "bad state"
}

// ParseSessionState converts the persisted integer form back into a
// SessionState. Unknown values map to SessionStateMissing so that stale
// records from newer versions degrade to the conservative state.
func ParseSessionState(field string) SessionState {
	n, err := strconv.Atoi(field)
	if err != nil || n < int(SessionStateMissing) || n > int(SessionStateRunning) {
		return SessionStateMissing
	}
	return SessionState(n)
}

// Field returns the persisted integer form of the state.
func (s SessionState) Field() string {
	return fmt.Sprintf("%d", s)
}
