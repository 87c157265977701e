package vboxmanage

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
)

var _ = Describe("Machine queries", func() {
	var (
		fake *fakeExec
		hv   *VBoxInstance
	)

	BeforeEach(func() {
		fake = &fakeExec{}
		hv = newTestInstance(fake)
	})

	Describe("GetMachineInfo", func() {
		It("parses the key/value listing", func() {
			fake.on("showvminfo vm-1", execOut(
				"Name:            cernvm",
				"UUID:            1a2b3c",
				"State:           running (since 2024-05-02T09:13:05.123000000)",
			), nil)

			info, err := hv.GetMachineInfo("vm-1", 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(info["Name"]).To(Equal("cernvm"))
			Expect(info["State"]).To(Equal("running (since 2024-05-02T09:13:05.123000000)"))
		})

		It("passes a custom timeout through to the executor", func() {
			fake.on("showvminfo vm-1", execOut("Name: x"), nil)

			_, err := hv.GetMachineInfo("vm-1", 5*time.Second)
			Expect(err).ToNot(HaveOccurred())

			calls := fake.callsMatching("showvminfo vm-1")
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Cfg.Timeout).To(Equal(5 * time.Second))
		})

		It("maps a nonzero exit to a query error", func() {
			fake.on("showvminfo vm-1", execExit(1, "VBoxManage: error: Could not find a registered machine"), nil)

			_, err := hv.GetMachineInfo("vm-1", 0)
			Expect(err).To(MatchError(define.ErrQueryFailed))
		})
	})

	Describe("GetAllProperties", func() {
		It("parses the guest property listing", func() {
			fake.on("guestproperty enumerate vm-1", execOut(
				"Name: /CVMWeb/version, value: 1.4.2, timestamp: 14725298170316, flags: ",
				"Name: /CVMWeb/apikey, value: a,b,c, timestamp: 14725298170394, flags: ",
			), nil)

			props, err := hv.GetAllProperties("vm-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(props).To(HaveLen(2))
			Expect(props["/CVMWeb/version"]).To(Equal("1.4.2"))
			Expect(props["/CVMWeb/apikey"]).To(Equal("a,b,c"))
		})

		It("maps failures to a query error", func() {
			fake.on("guestproperty enumerate vm-1", nil, errors.New("boom"))

			_, err := hv.GetAllProperties("vm-1")
			Expect(err).To(MatchError(define.ErrQueryFailed))
		})
	})

	Describe("GetProperty", func() {
		It("returns the payload of a set property", func() {
			fake.on("guestproperty get vm-1", execOut("Value: 10.0.2.15"), nil)

			value, err := hv.GetProperty("vm-1", "/VirtualBox/GuestInfo/Net/0/V4/IP")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal("10.0.2.15"))
		})

		It("quotes the property name", func() {
			fake.on("guestproperty get vm-1", execOut("Value: x"), nil)

			_, err := hv.GetProperty("vm-1", "some property")
			Expect(err).ToNot(HaveOccurred())

			calls := fake.callsMatching("guestproperty get vm-1")
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Args).To(Equal(`guestproperty get vm-1 "some property"`))
		})

		It("treats an unset property as empty", func() {
			fake.on("guestproperty get vm-1", execOut("No value set!"), nil)

			value, err := hv.GetProperty("vm-1", "/missing")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(BeEmpty())
		})

		It("maps a nonzero exit to a query error", func() {
			fake.on("guestproperty get vm-1", execExit(1), nil)

			_, err := hv.GetProperty("vm-1", "/missing")
			Expect(err).To(MatchError(define.ErrQueryFailed))
		})
	})

	Describe("GetDiskList", func() {
		It("parses blank-line separated records", func() {
			fake.on("list hdds", execOut(
				"UUID:           d5a67b19-eec6-4ba2-8a08-7d543f5a3270",
				"Parent UUID:    base",
				"Location:       /root/VirtualBox VMs/a/a.vdi",
				"",
				"UUID:           e7f80d6c-6013-4a5c-b2e3-2f7061a8a6e7",
				"Parent UUID:    base",
				"Location:       /root/VirtualBox VMs/b/b.vdi",
			), nil)

			disks, err := hv.GetDiskList()
			Expect(err).ToNot(HaveOccurred())
			Expect(disks).To(HaveLen(2))
			Expect(disks[0]["Location"]).To(Equal("/root/VirtualBox VMs/a/a.vdi"))
			Expect(disks[1]["UUID"]).To(Equal("e7f80d6c-6013-4a5c-b2e3-2f7061a8a6e7"))
		})

		It("maps a nonzero exit to a query error", func() {
			fake.on("list hdds", execExit(1), nil)

			_, err := hv.GetDiskList()
			Expect(err).To(MatchError(define.ErrQueryFailed))
		})
	})

	Describe("PIDFromLogFile", func() {
		It("finds the process id", func() {
			logDir := GinkgoT().TempDir()
			log := "00:00:02.726001 VirtualBox VM 7.0.18 r162988 linux.amd64\n" +
				"00:00:02.726040 Process ID: 73530\n" +
				"00:00:02.726041 Package type: LINUX_64BITS_GENERIC\n"
			Expect(os.WriteFile(filepath.Join(logDir, "VBox.log"), []byte(log), 0o644)).To(Succeed())

			pid, err := PIDFromLogFile(logDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(pid).To(Equal(73530))
		})

		It("returns zero when the log has no process id", func() {
			logDir := GinkgoT().TempDir()
			Expect(os.WriteFile(filepath.Join(logDir, "VBox.log"), []byte("boot\n"), 0o644)).To(Succeed())

			pid, err := PIDFromLogFile(logDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(pid).To(BeZero())
		})

		It("propagates a missing log file", func() {
			_, err := PIDFromLogFile(GinkgoT().TempDir())
			Expect(err).To(HaveOccurred())
		})
	})
})
