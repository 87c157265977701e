package vboxmanage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/opencontainers/go-digest"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
)

const extPackURL = "https://download.virtualbox.org/virtualbox/7.0.18/Oracle_VM_VirtualBox_Extension_Pack-7.0.18.vbox-extpack"

var _ = Describe("Extension pack", func() {
	var (
		fake     *fakeExec
		hv       *VBoxInstance
		dl       *fakeDownloader
		keystore *fakeKeystore
		payload  []byte
		scratch  string
	)

	BeforeEach(func() {
		fake = &fakeExec{}
		hv = newTestInstance(fake)
		probeCleanVersion(fake, hv)

		payload = []byte("extension pack payload")
		dl = &fakeDownloader{payloads: map[string][]byte{extPackURL: payload}}
		keystore = &fakeKeystore{entries: map[string]string{
			"vbox-7.0.18-extpack":         extPackURL,
			"vbox-7.0.18-extpackChecksum": digest.SHA256.FromBytes(payload).Encoded(),
		}}
		scratch = filepath.Join(hv.cfg.TmpDir, "Oracle_VM_VirtualBox_Extension_Pack-7.0.18.vbox-extpack")
	})

	Describe("HasExtPack", func() {
		It("spots the Oracle pack in the listing", func() {
			fake.on("list extpacks", execOut(
				"Extension Packs: 1",
				`Pack no. 0:   Oracle VM VirtualBox Extension Pack`,
			), nil)
			Expect(hv.HasExtPack()).To(BeTrue())
		})

		It("reports false for an empty listing", func() {
			fake.on("list extpacks", execOut("Extension Packs: 0"), nil)
			Expect(hv.HasExtPack()).To(BeFalse())
		})

		It("reports false when the listing cannot run", func() {
			fake.on("list extpacks", nil, errors.New("boom"))
			Expect(hv.HasExtPack()).To(BeFalse())
		})
	})

	Describe("InstallExtPack", func() {
		It("downloads, verifies and installs the pack", func() {
			rep := newRecorder()
			Expect(hv.InstallExtPack(keystore, dl, rep)).To(Succeed())

			Expect(dl.calls).To(ConsistOf(extPackURL))

			installs := fake.callsMatching("extpack install")
			Expect(installs).To(HaveLen(1))
			Expect(installs[0].Args).To(Equal(fmt.Sprintf("extpack install %q", scratch)))
			Expect(installs[0].Cfg.GUI).To(BeTrue())

			_, err := os.Stat(scratch)
			Expect(os.IsNotExist(err)).To(BeTrue())

			Expect(rep.Events()).To(ContainElement("done:Extension pack integrity validated"))
			Expect(rep.Events()).To(ContainElement("complete:Extension pack installed successfully"))
		})

		It("does nothing when the pack is already installed", func() {
			fake.on("list extpacks", execOut("Pack no. 0:   Oracle VM VirtualBox Extension Pack"), nil)

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(MatchError(define.ErrAlreadyExists))
			Expect(dl.calls).To(BeEmpty())
			Expect(rep.Events()).To(ContainElement("complete:Already installed"))
		})

		It("refuses an artifact that fails its checksum", func() {
			keystore.entries["vbox-7.0.18-extpackChecksum"] = "deadbeef"

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(MatchError(define.ErrNotValidated))

			// The unverified artifact never reaches VBoxManage and does not
			// linger on disk.
			Expect(fake.callsMatching("extpack install")).To(BeEmpty())
			_, statErr := os.Stat(scratch)
			Expect(os.IsNotExist(statErr)).To(BeTrue())

			Expect(rep.Events()).To(ContainElement("fail:Extension pack integrity was not validated"))
		})

		It("requires the pack URL in the configuration", func() {
			delete(keystore.entries, "vbox-7.0.18-extpack")

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(MatchError(define.ErrExternal))
			Expect(rep.Events()).To(ContainElement("fail:No extensions package URL found"))
		})

		It("requires the pack checksum in the configuration", func() {
			delete(keystore.entries, "vbox-7.0.18-extpackChecksum")

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(MatchError(define.ErrExternal))
			Expect(rep.Events()).To(ContainElement("fail:No extensions package checksum found"))
		})

		It("passes keystore trust failures through", func() {
			keystore.err = define.ErrNotTrusted

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(MatchError(define.ErrNotTrusted))
			Expect(rep.Events()).To(ContainElement("fail:Hypervisor configuration integrity check failed"))
		})

		It("wraps other keystore failures", func() {
			keystore.err = errors.New("name resolution failed")

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(HaveOccurred())
			Expect(rep.Events()).To(ContainElement("fail:Unable to fetch hypervisor configuration"))
		})

		It("reports download failures", func() {
			dl.err = errors.New("connection reset")

			rep := newRecorder()
			err := hv.InstallExtPack(keystore, dl, rep)
			Expect(err).To(HaveOccurred())
			Expect(rep.Events()).To(ContainElement("fail:Unable to download extension pack"))
		})

		It("cleans the scratch file up even when the installer fails", func() {
			fake.on("extpack install", execExit(1), nil)

			err := hv.InstallExtPack(keystore, dl, newRecorder())
			Expect(err).To(MatchError(define.ErrExternal))

			_, statErr := os.Stat(scratch)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})
})
