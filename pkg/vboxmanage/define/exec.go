package define

import "time"

// GenericKey serializes host-wide VBoxManage invocations that are not
// scoped to a single VM. Commands sharing a key never run concurrently.
const GenericKey = "generic"

// DefaultExecTimeout bounds a single VBoxManage invocation.
const DefaultExecTimeout = 30 * time.Second

// ExecConfig adjusts a single command invocation.
type ExecConfig struct {
	// Timeout bounds the whole invocation. Zero means DefaultExecTimeout.
	Timeout time.Duration
	// GUI marks commands that may need to raise VirtualBox UI elements
	// (the extension pack installer shows an EULA window on some hosts).
	GUI bool
}

// ExecResult is the structured outcome of one VBoxManage invocation.
// A nonzero ExitCode is data, not an execution failure.
type ExecResult struct {
	ExitCode int
	// Stdout holds the output split into lines, in order.
	Stdout []string
	Stderr string
}
