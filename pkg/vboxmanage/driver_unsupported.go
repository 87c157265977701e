//go:build !linux

package vboxmanage

import (
	"errors"

	"github.com/containers/libvbox/pkg/vboxmanage/config"
)

func repairKernelDriver(_ *config.Config) error {
	return errors.New("kernel driver setup is only supported on linux")
}

// KernelDriverPresent reports whether the vboxdrv device node is usable.
// Platforms other than linux bundle the driver with the installer, so it
// is assumed present.
func KernelDriverPresent() bool {
	return true
}
