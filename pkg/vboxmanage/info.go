package vboxmanage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/containers/libvbox/pkg/errorhandling"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/parse"
)

// GetMachineInfo returns everything `showvminfo` reports about a machine as
// a key/value map. The command is serialized on the machine's own key so it
// never interleaves with a mutation of the same VM. A timeout of zero keeps
// the configured default.
func (hv *VBoxInstance) GetMachineInfo(id string, timeout time.Duration) (map[string]string, error) {
	cfg := hv.execConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	res, err := hv.run(id, "showvminfo "+id, cfg)
	if err != nil {
		return nil, fmt.Errorf("querying machine %s: %v: %w", id, err, define.ErrQueryFailed)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("querying machine %s: exit code %d: %w", id, res.ExitCode, define.ErrQueryFailed)
	}
	return parse.KeyValues(res.Stdout, ":"), nil
}

// GetAllProperties returns every guest property published by a machine.
func (hv *VBoxInstance) GetAllProperties(id string) (map[string]string, error) {
	res, err := hv.run(id, "guestproperty enumerate "+id, hv.execConfig())
	if err != nil {
		return nil, fmt.Errorf("enumerating guest properties of %s: %v: %w", id, err, define.ErrQueryFailed)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("enumerating guest properties of %s: exit code %d: %w", id, res.ExitCode, define.ErrQueryFailed)
	}
	return parse.GuestProperties(res.Stdout), nil
}

// GetProperty returns a single guest property value, or "" when the guest
// never set it. Only a failure to ask the hypervisor is an error.
func (hv *VBoxInstance) GetProperty(id, name string) (string, error) {
	args := fmt.Sprintf("guestproperty get %s %q", id, name)
	res, err := hv.run(id, args, hv.execConfig())
	if err != nil {
		return "", fmt.Errorf("reading guest property %q of %s: %v: %w", name, id, err, define.ErrQueryFailed)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("reading guest property %q of %s: exit code %d: %w", name, id, res.ExitCode, define.ErrQueryFailed)
	}
	if len(res.Stdout) == 0 {
		return "", nil
	}
	value, ok := parse.Value(res.Stdout[0])
	if !ok {
		// "No value set!" reply.
		return "", nil
	}
	return value, nil
}

// GetDiskList returns one record per virtual disk registered with the
// hypervisor, as reported by `list hdds`.
func (hv *VBoxInstance) GetDiskList() ([]map[string]string, error) {
	res, err := hv.run(define.GenericKey, "list hdds", hv.execConfig())
	if err != nil {
		return nil, fmt.Errorf("listing virtual disks: %v: %w", err, define.ErrQueryFailed)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("listing virtual disks: exit code %d: %w", res.ExitCode, define.ErrQueryFailed)
	}
	return parse.RecordList(res.Stdout, ":"), nil
}

// PIDFromLogFile digs the hypervisor process id out of the VBox.log a
// running machine leaves in its log directory. Returns 0 and no error when
// the log carries no process id yet.
func PIDFromLogFile(logDir string) (int, error) {
	f, err := os.Open(filepath.Join(logDir, "VBox.log"))
	if err != nil {
		return 0, err
	}
	defer errorhandling.CloseQuiet(f)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		_, rest, found := strings.Cut(scanner.Text(), "Process ID:")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		return pid, nil
	}
	return 0, scanner.Err()
}
