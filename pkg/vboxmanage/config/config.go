// Package config carries the tunables for a hypervisor instance and
// locates the VBoxManage binary and the per-user data directory.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/containers/storage/pkg/fileutils"
	"github.com/containers/storage/pkg/homedir"
)

const defaultExecTimeout = 30 // seconds

// Config is the instance configuration. The zero value is usable but
// callers normally start from Default.
type Config struct {
	// BinaryPath overrides VBoxManage discovery with an explicit path.
	BinaryPath string `toml:"binary_path,omitempty"`
	// ExecTimeout is the per-command timeout in seconds.
	ExecTimeout uint `toml:"exec_timeout,omitempty"`
	// DataDir overrides where session records are persisted.
	DataDir string `toml:"data_dir,omitempty"`
	// TmpDir is the scratch space for downloaded artifacts.
	TmpDir string `toml:"tmp_dir,omitempty"`
	// DriverSetup is the privileged command that rebuilds the kernel
	// driver when it failed to load.
	DriverSetup string `toml:"driver_setup,omitempty"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		ExecTimeout: defaultExecTimeout,
		TmpDir:      os.TempDir(),
		DriverSetup: "/sbin/vboxconfig",
	}
}

// Load reads the TOML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(string(contents), cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Timeout returns the per-command timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.ExecTimeout == 0 {
		return defaultExecTimeout * time.Second
	}
	return time.Duration(c.ExecTimeout) * time.Second
}

// TmpDirPath returns the scratch directory, falling back to the system
// default when unset.
func (c *Config) TmpDirPath() string {
	if c.TmpDir == "" {
		return os.TempDir()
	}
	return c.TmpDir
}

var (
	onceFind       sync.Once
	vboxManagePath string
)

// FindVBoxManage locates the VBoxManage binary. An explicit BinaryPath
// wins; otherwise PATH is consulted, then the per-OS install locations.
// Discovery is cached for the process lifetime.
func (c *Config) FindVBoxManage() string {
	if c.BinaryPath != "" {
		return c.BinaryPath
	}

	onceFind.Do(func() {
		if p, err := exec.LookPath("VBoxManage"); err == nil {
			vboxManagePath = p
			return
		}

		for _, loc := range wellKnownLocations() {
			if err := fileutils.Exists(loc); err == nil {
				vboxManagePath = loc
				return
			}
		}

		// Hope for the best
		vboxManagePath = "VBoxManage"
	})

	return vboxManagePath
}

func wellKnownLocations() []string {
	switch runtime.GOOS {
	case "windows":
		program := os.Getenv("ProgramFiles")
		if program == "" {
			program = `C:\Program Files`
		}
		return []string{filepath.Join(program, "Oracle", "VirtualBox", "VBoxManage.exe")}
	case "darwin":
		return []string{
			"/Applications/VirtualBox.app/Contents/MacOS/VBoxManage",
			"/usr/local/bin/VBoxManage",
		}
	default:
		return []string{
			"/usr/bin/VBoxManage",
			"/usr/local/bin/VBoxManage",
			"/opt/VirtualBox/VBoxManage",
		}
	}
}

// DataDirPath returns, creating it if necessary, the directory session
// records live in. DataDir wins over the per-user default.
func (c *Config) DataDirPath() (string, error) {
	dir := c.DataDir
	if dir == "" {
		data, err := homedir.GetDataHome()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(data, "containers", "libvbox")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
