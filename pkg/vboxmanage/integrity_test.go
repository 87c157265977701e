package vboxmanage

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
)

var _ = Describe("ValidateIntegrity", func() {
	var (
		fake *fakeExec
		hv   *VBoxInstance
	)

	BeforeEach(func() {
		fake = &fakeExec{}
		hv = newTestInstance(fake)
	})

	It("accepts a clean version report", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list systemproperties", execOut(
			"Default machine folder:          /root/VirtualBox VMs",
			"Default Guest Additions ISO:     /usr/share/virtualbox/VBoxGuestAdditions.iso",
		), nil)

		Expect(hv.ValidateIntegrity()).To(BeTrue())
		Expect(hv.IntegrityValid()).To(BeTrue())
		Expect(hv.Version().Major).To(Equal(7))
		Expect(hv.Version().Minor).To(Equal(0))
		Expect(hv.Version().Build).To(Equal(18))
		Expect(hv.KernelDriverLoaded()).To(BeTrue())
		Expect(hv.GuestAdditionsISO()).To(Equal("/usr/share/virtualbox/VBoxGuestAdditions.iso"))
	})

	It("recovers from the kernel driver warning", func() {
		fake.on("--version", execOut(
			"WARNING: The vboxdrv kernel module is not loaded. Either there is no module",
			"         available for the current kernel or it failed to load.",
			"7.0.18r162988",
		), nil)

		Expect(hv.ValidateIntegrity()).To(BeTrue())
		Expect(hv.KernelDriverLoaded()).To(BeFalse())
		Expect(hv.Version().String()).To(Equal("7.0.18"))
	})

	It("rejects any other warning", func() {
		fake.on("--version", execOut(
			"WARNING: The character device /dev/vboxdrv does not exist.",
			"7.0.18r162988",
		), nil)

		Expect(hv.ValidateIntegrity()).To(BeFalse())
		Expect(hv.IntegrityValid()).To(BeFalse())
	})

	It("rejects error output", func() {
		fake.on("--version", execOut(
			"ERROR: failed to open /dev/vboxdrvu",
			"7.0.18r162988",
		), nil)

		Expect(hv.ValidateIntegrity()).To(BeFalse())
	})

	It("lets an error override the recoverable warning on the same line", func() {
		fake.on("--version", execOut(
			"WARNING: vboxdrv kernel module is not loaded, ERROR: giving up",
		), nil)

		Expect(hv.ValidateIntegrity()).To(BeFalse())
		// The warning was still seen before the error shut the probe down.
		Expect(hv.KernelDriverLoaded()).To(BeFalse())
	})

	It("rejects stderr chatter", func() {
		fake.on("--version", &define.ExecResult{
			Stdout: []string{"7.0.18r162988"},
			Stderr: "dlopen failed",
		}, nil)

		Expect(hv.ValidateIntegrity()).To(BeFalse())
	})

	It("fails when the binary cannot run", func() {
		fake.on("--version", nil, errors.New("exec: not found"))

		Expect(hv.ValidateIntegrity()).To(BeFalse())
		Expect(hv.IntegrityValid()).To(BeFalse())
	})

	It("keeps integrity when the guest additions probe fails", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list systemproperties", execExit(1), nil)

		Expect(hv.ValidateIntegrity()).To(BeTrue())
		Expect(hv.GuestAdditionsISO()).To(BeEmpty())
	})

	It("invalidates a previously good probe", func() {
		fake.onOnce("--version", execOut("7.0.18r162988"), nil)
		fake.on("--version", execOut("ERROR: hypervisor broke"), nil)

		Expect(hv.ValidateIntegrity()).To(BeTrue())
		Expect(hv.ValidateIntegrity()).To(BeFalse())
		Expect(hv.IntegrityValid()).To(BeFalse())
	})
})
