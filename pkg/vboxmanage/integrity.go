package vboxmanage

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/parse"
)

const (
	// driverWarning is the fragment VBoxManage prints when the vboxdrv
	// kernel module is missing. It is the only warning the probe recovers
	// from.
	driverWarning = "vboxdrv kernel module is not loaded"

	guestAdditionsKey = "Default Guest Additions ISO"
)

// ValidateIntegrity probes the installation with `VBoxManage --version` and
// decides whether the hypervisor is usable. VirtualBox prints warnings and
// errors on stdout ahead of the version string, so every line is inspected:
// any ERROR fails the probe, and so does any WARNING except the recoverable
// kernel driver one, which clears the driver flag and continues. Anything on
// stderr fails the probe too. A clean pass records the reported version and
// refreshes the guest additions ISO path.
func (hv *VBoxInstance) ValidateIntegrity() bool {
	version, drvLoaded, ok := hv.probeVersion()

	var guestAdditions string
	if ok {
		guestAdditions = hv.probeGuestAdditions()
	}

	hv.mu.Lock()
	defer hv.mu.Unlock()
	hv.integrityValid = ok
	hv.drvKernelLoaded = drvLoaded
	if ok {
		hv.version = version
		hv.guestAdditions = guestAdditions
	}
	return ok
}

func (hv *VBoxInstance) probeVersion() (define.Version, bool, bool) {
	drvLoaded := true
	res, err := hv.run(define.GenericKey, "--version", hv.execConfig())
	if err != nil {
		logrus.Debugf("Hypervisor integrity probe did not run: %v", err)
		return define.Version{}, drvLoaded, false
	}
	for _, line := range res.Stdout {
		if strings.Contains(line, "WARNING") {
			if strings.Contains(line, driverWarning) {
				logrus.Warning("VirtualBox kernel driver is not loaded")
				drvLoaded = false
			} else {
				logrus.Debugf("Hypervisor reported a warning: %s", line)
				return define.Version{}, drvLoaded, false
			}
		}
		// An ERROR overrides the recoverable warning even on the same line.
		if strings.Contains(line, "ERROR") {
			logrus.Debugf("Hypervisor reported an error: %s", line)
			return define.Version{}, drvLoaded, false
		}
	}
	if res.Stderr != "" {
		logrus.Debugf("Hypervisor wrote to stderr: %s", res.Stderr)
		return define.Version{}, drvLoaded, false
	}

	var version define.Version
	if len(res.Stdout) > 0 {
		// The version is the last line, after any warning chatter.
		version = define.ParseVersion(res.Stdout[len(res.Stdout)-1])
	}
	return version, drvLoaded, true
}

// probeGuestAdditions asks the system properties for the bundled guest
// additions image. Best effort, any failure leaves the path empty.
func (hv *VBoxInstance) probeGuestAdditions() string {
	res, err := hv.run(define.GenericKey, "list systemproperties", hv.execConfig())
	if err != nil || res.ExitCode != 0 {
		logrus.Debugf("Unable to list system properties: %v", err)
		return ""
	}
	props := parse.Lines(res.Stdout, ":", " \t", 0, 1)
	return props[guestAdditionsKey]
}
