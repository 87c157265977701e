package define

import "errors"

var (
	// ErrQueryFailed indicates the VBoxManage process could not be run at
	// all, or did not finish within its allotted timeout.
	ErrQueryFailed = errors.New("hypervisor query failed")

	// ErrExternal indicates VBoxManage ran but produced unexpected or
	// empty output, or failed partway through an operation.
	ErrExternal = errors.New("unexpected hypervisor response")

	// ErrAlreadyExists indicates the requested artifact is already
	// installed or present. Operations returning it performed no work.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotValidated indicates a downloaded artifact failed its checksum
	// verification and was discarded without being installed.
	ErrNotValidated = errors.New("artifact integrity was not validated")

	// ErrNotTrusted indicates the signed hypervisor configuration failed
	// its trust verification.
	ErrNotTrusted = errors.New("configuration signature is not trusted")

	// ErrUserDeclined indicates the user refused a required confirmation
	// or license prompt.
	ErrUserDeclined = errors.New("declined by user")

	// ErrNoSuchSession indicates the requested session does not exist in
	// the registry.
	ErrNoSuchSession = errors.New("session does not exist")

	// ErrInvalidArg indicates an invalid argument was passed.
	ErrInvalidArg = errors.New("invalid argument")
)
