//go:build linux

package vboxmanage

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Kernel driver repair", func() {
	var (
		fake     *fakeExec
		hv       *VBoxInstance
		keystore *fakeKeystore
		ui       *fakeUI
		ran      []string
	)

	BeforeEach(func() {
		fake = &fakeExec{}
		hv = newTestInstance(fake)
		keystore = &fakeKeystore{}
		ui = &fakeUI{confirmAnswer: true, licenseAnswer: true}

		ran = nil
		original := driverSetupCommand
		driverSetupCommand = func(cmdline string) error {
			ran = append(ran, cmdline)
			return nil
		}
		DeferCleanup(func() {
			driverSetupCommand = original
		})

		fake.on("list vms", execOut(), nil)
		fake.on("list extpacks", execOut("Pack no. 0:   Oracle VM VirtualBox Extension Pack"), nil)
	})

	It("repairs the driver with user consent", func() {
		fake.onOnce("--version", execOut(
			"WARNING: The vboxdrv kernel module is not loaded.",
			"7.0.18r162988",
		), nil)
		fake.on("--version", execOut("7.0.18r162988"), nil)

		rep := newRecorder()
		Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeTrue())

		Expect(ui.confirms).To(HaveLen(1))
		Expect(ran).To(ConsistOf("/sbin/vboxconfig"))
		Expect(hv.KernelDriverLoaded()).To(BeTrue())
		Expect(rep.Events()).To(ContainElement("done:VirtualBox driver in place"))
	})

	It("runs the configured setup command", func() {
		hv.cfg.DriverSetup = "/usr/lib/virtualbox/vboxdrv.sh setup"
		fake.onOnce("--version", execOut(
			"WARNING: The vboxdrv kernel module is not loaded.",
			"7.0.18r162988",
		), nil)
		fake.on("--version", execOut("7.0.18r162988"), nil)

		Expect(hv.WaitTillReady(keystore, newRecorder(), ui)).To(BeTrue())
		Expect(ran).To(ConsistOf("/usr/lib/virtualbox/vboxdrv.sh setup"))
	})

	It("fails when the setup command fails", func() {
		driverSetupCommand = func(string) error {
			return errors.New("modprobe: FATAL")
		}
		fake.on("--version", execOut(
			"WARNING: The vboxdrv kernel module is not loaded.",
			"7.0.18r162988",
		), nil)

		rep := newRecorder()
		Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeFalse())
		Expect(rep.Events()).To(ContainElement("fail:Virtualbox driver installation failed"))
	})

	It("fails when the driver is still missing after the repair", func() {
		fake.on("--version", execOut(
			"WARNING: The vboxdrv kernel module is not loaded.",
			"7.0.18r162988",
		), nil)

		rep := newRecorder()
		Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeFalse())
		Expect(ran).To(HaveLen(1))
		Expect(rep.Events()).To(ContainElement("fail:Could not validate hypervisor integrity after install"))
	})
})
