package define

import (
	"github.com/containers/common/pkg/strongunits"
)

// CPUID feature bits the capability probe cares about. FeatureVMX and
// FeatureSVM together decide hardware virtualization support; FeatureLM
// decides 64-bit guest support.
const (
	// FeatureVMX is bit 5 of CPUID leaf 1 ECX (Intel VT-x).
	FeatureVMX = 0x20
	// FeatureSVM is bit 1 of CPUID leaf 0x80000001 ECX (AMD-V).
	FeatureSVM = 0x2
	// FeatureLM is bit 29 of CPUID leaf 0x80000001 ECX (long mode).
	FeatureLM = 0x20000000
)

// Conservative floors used when `list systemproperties` omits a limit.
const (
	DefaultMaxCPUs   = 1
	DefaultMaxMemory = strongunits.MiB(1024)
	DefaultMaxDisk   = strongunits.GiB(2048)
)

// CPUInfo is the host processor identification decoded from
// `VBoxManage list hostcpuids`.
type CPUInfo struct {
	// Vendor is the 12-character identification tag, e.g. "GenuineIntel".
	Vendor string
	// Signature fields unpacked from leaf 1 EAX.
	Stepping int
	Model    int
	Family   int
	Type     int
	ExModel  int
	ExFamily int
	// FeaturesA and FeaturesB are leaf 1 ECX and EDX.
	FeaturesA uint32
	FeaturesB uint32
	// FeaturesC and FeaturesD are leaf 0x80000001 ECX and EDX.
	FeaturesC uint32
	FeaturesD uint32
	// HasVT reports hardware virtualization support (VT-x or AMD-V).
	HasVT bool
	// Has64Bit reports long-mode support.
	Has64Bit bool
}

// ResourceLimits are the guest resource ceilings the hypervisor enforces.
type ResourceLimits struct {
	CPUs   int
	Memory strongunits.MiB
	Disk   strongunits.GiB
}

// Capabilities describes what the host and hypervisor can run.
type Capabilities struct {
	CPU CPUInfo
	Max ResourceLimits
}
