package vboxmanage

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opencontainers/go-digest"
)

var _ = Describe("WaitTillReady", func() {
	var (
		fake     *fakeExec
		hv       *VBoxInstance
		dl       *fakeDownloader
		keystore *fakeKeystore
		ui       *fakeUI
	)

	BeforeEach(func() {
		fake = &fakeExec{}

		payload := []byte("extension pack payload")
		dl = &fakeDownloader{payloads: map[string][]byte{extPackURL: payload}}
		keystore = &fakeKeystore{entries: map[string]string{
			"vbox-7.0.18-extpack":         extPackURL,
			"vbox-7.0.18-extpackChecksum": digest.SHA256.FromBytes(payload).Encoded(),
		}}
		ui = &fakeUI{confirmAnswer: true, licenseAnswer: true}

		hv = newTestInstance(fake, WithDownloadProvider(dl))
	})

	It("reports ready and latches when everything is in place", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list vms", execOut(), nil)
		fake.on("list extpacks", execOut("Pack no. 0:   Oracle VM VirtualBox Extension Pack"), nil)

		rep := newRecorder()
		Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeTrue())
		Expect(rep.Events()).To(ContainElement("done:VirtualBox driver in place"))
		Expect(rep.Events()).To(ContainElement("done:Extension pack is installed"))
		Expect(rep.Events()).To(ContainElement("complete:Hypervisor is ready"))

		before := len(fake.callsMatching(""))
		Expect(hv.WaitTillReady(keystore, newRecorder(), ui)).To(BeTrue())
		Expect(fake.callsMatching("")).To(HaveLen(before))
	})

	It("asks for the PUEL license before installing the pack", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list vms", execOut(), nil)
		fake.on("list extpacks", execOut("Extension Packs: 0"), nil)
		ui.licenseAnswer = false

		rep := newRecorder()
		Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeFalse())
		Expect(ui.licenses).To(ConsistOf(puelTitle))
		Expect(fake.callsMatching("extpack install")).To(BeEmpty())
	})

	It("treats a nil ui as a declined license", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list vms", execOut(), nil)
		fake.on("list extpacks", execOut("Extension Packs: 0"), nil)

		Expect(hv.WaitTillReady(keystore, newRecorder(), nil)).To(BeFalse())
	})

	It("loads sessions only once across attempts", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list vms", execOut(), nil)
		fake.on("list extpacks", execOut("Extension Packs: 0"), nil)

		ui.licenseAnswer = false
		Expect(hv.WaitTillReady(keystore, newRecorder(), ui)).To(BeFalse())
		Expect(fake.callsMatching("list vms")).To(HaveLen(1))

		ui.licenseAnswer = true
		Expect(hv.WaitTillReady(keystore, newRecorder(), ui)).To(BeTrue())
		Expect(fake.callsMatching("list vms")).To(HaveLen(1))
		Expect(fake.callsMatching("extpack install")).To(HaveLen(1))
	})

	It("stays usable when the pack install fails, but does not latch", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list vms", execOut(), nil)
		fake.on("list extpacks", execOut("Extension Packs: 0"), nil)
		fake.on("extpack install", execExit(1), nil)

		Expect(hv.WaitTillReady(keystore, newRecorder(), ui)).To(BeTrue())
		Expect(hv.WaitTillReady(keystore, newRecorder(), ui)).To(BeTrue())
		// Unlatched, so the second call retried the install.
		Expect(fake.callsMatching("extpack install")).To(HaveLen(2))
	})

	It("fails when the machine listing is broken", func() {
		fake.on("--version", execOut("7.0.18r162988"), nil)
		fake.on("list vms", execExit(1), nil)

		rep := newRecorder()
		Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeFalse())
		Expect(rep.Failed()).To(BeTrue())
	})

	Describe("kernel driver handling", func() {
		BeforeEach(func() {
			fake.on("--version", execOut(
				"WARNING: The vboxdrv kernel module is not loaded.",
				"7.0.18r162988",
			), nil)
			fake.on("list vms", execOut(), nil)
			fake.on("list extpacks", execOut("Pack no. 0:   Oracle VM VirtualBox Extension Pack"), nil)
		})

		It("fails without an interactive capability", func() {
			rep := newRecorder()
			Expect(hv.WaitTillReady(keystore, rep, nil)).To(BeFalse())
			Expect(rep.Events()).To(ContainElement("fail:" + driverWarning))
		})

		It("fails when the user declines the repair", func() {
			ui.confirmAnswer = false

			rep := newRecorder()
			Expect(hv.WaitTillReady(keystore, rep, ui)).To(BeFalse())
			Expect(ui.confirms).To(HaveLen(1))
			Expect(ui.alerts).To(HaveLen(1))
			Expect(rep.Events()).To(ContainElement("fail:" + driverWarning))
		})
	})
})
