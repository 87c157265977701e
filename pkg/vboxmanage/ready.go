package vboxmanage

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
)

// UserInteraction is how long-running operations ask the user to approve
// privileged or licensed steps. A nil UserInteraction means the caller has
// no interactive capability and every request is treated as declined.
type UserInteraction interface {
	// Confirm asks a yes/no question.
	Confirm(title, body string) bool
	// Alert shows a message that needs no answer.
	Alert(title, body string)
	// ConfirmLicense shows a license text and asks for acceptance.
	ConfirmLicense(title, text string) bool
}

// The Oracle extension pack is licensed separately from VirtualBox itself,
// so it is never fetched without an explicit acceptance.
const (
	puelTitle  = "VirtualBox Personal Use and Evaluation License (PUEL)"
	puelNotice = "The VirtualBox Extension Pack is required for USB 2.0/3.0, RDP and PXE " +
		"support. It is free for personal use and evaluation under the terms of the " +
		"VirtualBox Personal Use and Evaluation License. By continuing, the extension " +
		"pack will be downloaded from Oracle and you accept the terms of the PUEL, " +
		"available at https://www.virtualbox.org/wiki/VirtualBox_PUEL."
)

// WaitTillReady drives the hypervisor to a usable state: kernel driver
// loaded, session registry reconciled, extension pack present. Interactive
// steps go through ui. Once a run fully succeeds the instance is latched
// ready and later calls return true immediately; a run that came up short
// leaves the latch unarmed so the next call picks up the missing pieces.
func (hv *VBoxInstance) WaitTillReady(keystore Keystore, pf progress.Reporter, ui UserInteraction) bool {
	pf = progress.OrDiscard(pf)

	hv.readyMu.Lock()
	ready := hv.ready
	hv.readyMu.Unlock()
	if ready {
		pf.Complete("Hypervisor is ready")
		return true
	}

	pf.SetMax(3)

	if !hv.IntegrityValid() {
		hv.ValidateIntegrity()
	}

	if !hv.ensureKernelDriver(pf, ui) {
		return false
	}
	if pf.Failed() {
		return false
	}

	hv.readyMu.Lock()
	loaded := hv.sessionsLoaded
	hv.readyMu.Unlock()
	if !loaded {
		if err := hv.LoadSessions(pf.Begin("Loading sessions")); err != nil {
			return false
		}
		hv.readyMu.Lock()
		hv.sessionsLoaded = true
		hv.readyMu.Unlock()
	} else {
		pf.Done("Sessions are loaded")
	}
	if pf.Failed() {
		return false
	}

	extPackOK := true
	if !hv.HasExtPack() {
		child := pf.Begin("Installing extension pack")
		if ui == nil || !ui.ConfirmLicense(puelTitle, puelNotice) {
			child.Fail("User denied Oracle PUEL license", define.ErrUserDeclined)
			return false
		}
		err := hv.InstallExtPack(keystore, hv.dp, child)
		if err != nil && !errors.Is(err, define.ErrAlreadyExists) {
			// The hypervisor works without the pack, so a failed install
			// does not block readiness. The latch stays unarmed and the
			// next call retries the install.
			logrus.Errorf("Extension pack installation failed: %v", err)
			extPackOK = false
		}
	} else {
		pf.Done("Extension pack is installed")
	}

	pf.Complete("Hypervisor is ready")
	if extPackOK {
		hv.readyMu.Lock()
		hv.ready = true
		hv.readyMu.Unlock()
	}
	return true
}

// ensureKernelDriver handles the one recoverable installation defect, a
// VirtualBox whose kernel module never loaded. Repair needs root, so the
// user is asked first.
func (hv *VBoxInstance) ensureKernelDriver(pf progress.Reporter, ui UserInteraction) bool {
	if hv.KernelDriverLoaded() {
		pf.Done("VirtualBox driver in place")
		return true
	}

	consent := false
	if ui != nil {
		consent = ui.Confirm("Virtualbox kernel driver problem",
			"It seems VirtualBox did not manage to install the kernel driver. "+
				"Do you want to try and fix this? (It will require root privileges)")
	}
	if !consent {
		if ui != nil {
			ui.Alert("Virtualbox kernel driver problem",
				"The VirtualBox kernel driver is not loaded and the hypervisor cannot be used")
		}
		pf.Fail(driverWarning, define.ErrUserDeclined)
		return false
	}

	if err := repairKernelDriver(hv.cfg); err != nil {
		logrus.Errorf("Kernel driver setup failed: %v", err)
		pf.Fail("Virtualbox driver installation failed", err)
		return false
	}
	if !hv.ValidateIntegrity() || !hv.KernelDriverLoaded() {
		pf.Fail("Could not validate hypervisor integrity after install", define.ErrExternal)
		return false
	}
	pf.Done("VirtualBox driver in place")
	return true
}
