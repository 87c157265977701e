//go:build linux

package vboxmanage

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/containers/libvbox/pkg/vboxmanage/config"
)

// driverSetupCommand runs the privileged kernel driver setup. Hoisted into
// a variable so tests can stub the privileged step.
var driverSetupCommand = func(cmdline string) error {
	fields, err := shlex.Split(cmdline)
	if err != nil {
		return fmt.Errorf("parsing driver setup command %q: %w", cmdline, err)
	}
	if len(fields) == 0 {
		return errors.New("empty driver setup command")
	}
	logrus.Infof("Running driver setup: %s", cmdline)
	out, err := exec.Command(fields[0], fields[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("driver setup %q: %v: %s", cmdline, err, string(out))
	}
	return nil
}

func repairKernelDriver(cfg *config.Config) error {
	cmdline := cfg.DriverSetup
	if cmdline == "" {
		cmdline = "/sbin/vboxconfig"
	}
	return driverSetupCommand(cmdline)
}

// KernelDriverPresent reports whether the vboxdrv device node exists and is
// accessible to this process.
func KernelDriverPresent() bool {
	return unix.Access("/dev/vboxdrv", unix.R_OK|unix.W_OK) == nil
}
