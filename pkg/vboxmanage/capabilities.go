package vboxmanage

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/containers/common/pkg/strongunits"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/parse"
)

// System property keys carrying the guest resource ceilings.
const (
	maxCPUsKey   = "Maximum guest CPU count"
	maxMemoryKey = "Maximum guest RAM size"
	maxDiskKey   = "Virtual disk limit (info)"
)

// GetCapabilities decodes the host CPU identification from
// `list hostcpuids` and the guest resource ceilings from
// `list systemproperties`. Limits the hypervisor does not report keep
// conservative floors so callers can always size a machine.
func (hv *VBoxInstance) GetCapabilities() (*define.Capabilities, error) {
	caps := &define.Capabilities{
		Max: define.ResourceLimits{
			CPUs:   define.DefaultMaxCPUs,
			Memory: define.DefaultMaxMemory,
			Disk:   define.DefaultMaxDisk,
		},
	}

	res, err := hv.run(define.GenericKey, "list hostcpuids", hv.execConfig())
	if err != nil {
		return nil, fmt.Errorf("listing host cpuids: %v: %w", err, define.ErrQueryFailed)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("listing host cpuids: exit code %d: %w", res.ExitCode, define.ErrQueryFailed)
	}
	if len(res.Stdout) == 0 {
		return nil, fmt.Errorf("listing host cpuids: no output: %w", define.ErrExternal)
	}

	cpu := &caps.CPU
	for _, line := range res.Stdout {
		parts := parse.Fields(line)
		if len(parts) < 5 {
			continue
		}
		eax, errA := parseHex32(parts[1])
		ebx, errB := parseHex32(parts[2])
		ecx, errC := parseHex32(parts[3])
		edx, errD := parseHex32(parts[4])
		if errA != nil || errB != nil || errC != nil || errD != nil {
			continue
		}
		switch parts[0] {
		case "00000000":
			cpu.Vendor = vendorTag(ebx, edx, ecx)
		case "00000001":
			cpu.FeaturesA = ecx
			cpu.FeaturesB = edx
			cpu.Stepping = int(eax & 0xF)
			cpu.Model = int(eax >> 4 & 0xF)
			cpu.Family = int(eax >> 8 & 0xF)
			cpu.Type = int(eax >> 12 & 0x3)
			cpu.ExModel = int(eax >> 16 & 0xF)
			cpu.ExFamily = int(eax >> 20 & 0xFF)
		case "80000001":
			cpu.FeaturesC = ecx
			cpu.FeaturesD = edx
		}
	}
	cpu.HasVT = cpu.FeaturesA&define.FeatureVMX != 0 || cpu.FeaturesC&define.FeatureSVM != 0
	cpu.Has64Bit = cpu.FeaturesC&define.FeatureLM != 0

	res, err = hv.run(define.GenericKey, "list systemproperties", hv.execConfig())
	if err != nil {
		return nil, fmt.Errorf("listing system properties: %v: %w", err, define.ErrQueryFailed)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("listing system properties: exit code %d: %w", res.ExitCode, define.ErrQueryFailed)
	}
	if len(res.Stdout) == 0 {
		return nil, fmt.Errorf("listing system properties: no output: %w", define.ErrExternal)
	}

	props := parse.Lines(res.Stdout, ":", " \t", 0, 1)
	if v, ok := leadingInt(props[maxCPUsKey]); ok {
		caps.Max.CPUs = v
	}
	if v, ok := leadingInt(props[maxMemoryKey]); ok {
		caps.Max.Memory = strongunits.MiB(v)
	}
	if v, ok := leadingInt(props[maxDiskKey]); ok {
		// Reported in megabytes.
		caps.Max.Disk = strongunits.GiB(v / 1024)
	}
	return caps, nil
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

// vendorTag reassembles the 12-character vendor identification from the
// leaf 0 registers, each holding four characters least significant byte
// first, in EBX, EDX, ECX order.
func vendorTag(ebx, edx, ecx uint32) string {
	var tag [12]byte
	binary.LittleEndian.PutUint32(tag[0:], ebx)
	binary.LittleEndian.PutUint32(tag[4:], edx)
	binary.LittleEndian.PutUint32(tag[8:], ecx)
	return string(tag[:])
}

// leadingInt parses the integer prefix of a property value, tolerating
// unit suffixes such as "2097152 Megabytes".
func leadingInt(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return v, true
}
