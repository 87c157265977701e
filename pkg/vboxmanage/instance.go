// Package vboxmanage drives a local VirtualBox installation through its
// VBoxManage command line front end. The hypervisor is never linked against;
// every query and mutation is a serialized VBoxManage invocation whose text
// output is parsed into typed results.
package vboxmanage

import (
	"path/filepath"
	"sync"

	"github.com/containers/libvbox/pkg/vboxmanage/config"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/fetch"
	"github.com/containers/libvbox/pkg/vboxmanage/lock"
	"github.com/containers/libvbox/pkg/vboxmanage/store"
)

// sessionDBName is the bolt database holding session records under the data
// directory.
const sessionDBName = "sessions.db"

// VBoxInstance is the single entry point for everything VirtualBox. All
// methods are safe for concurrent use; commands touching the same machine
// are serialized on a per-key lock so VBoxManage never races against itself
// over one VM.
type VBoxInstance struct {
	cfg  *config.Config
	exec Executor
	gate *lock.Manager
	st   store.Store
	dp   fetch.DownloadProvider

	// probe results, guarded by mu
	mu              sync.Mutex
	integrityValid  bool
	version         define.Version
	guestAdditions  string
	drvKernelLoaded bool

	// session registry, guarded by registryMu
	registryMu sync.Mutex
	sessions   map[string]Session
	open       map[string]*openSession

	readyMu        sync.Mutex
	ready          bool
	sessionsLoaded bool
}

// Option adjusts a VBoxInstance under construction.
type Option func(*VBoxInstance) error

// WithExecutor replaces the default VBoxManage process runner.
func WithExecutor(exec Executor) Option {
	return func(hv *VBoxInstance) error {
		hv.exec = exec
		return nil
	}
}

// WithLockManager replaces the per-key command gate.
func WithLockManager(gate *lock.Manager) Option {
	return func(hv *VBoxInstance) error {
		hv.gate = gate
		return nil
	}
}

// WithStore replaces the on-disk session store.
func WithStore(st store.Store) Option {
	return func(hv *VBoxInstance) error {
		hv.st = st
		return nil
	}
}

// WithDownloadProvider replaces the extension pack downloader.
func WithDownloadProvider(dp fetch.DownloadProvider) Option {
	return func(hv *VBoxInstance) error {
		hv.dp = dp
		return nil
	}
}

// New builds a VBoxInstance from cfg, opening the session store under the
// configured data directory unless WithStore supplied one. A nil cfg gets
// the built-in defaults. No VBoxManage command is run here; the first probe
// happens in ValidateIntegrity or WaitTillReady.
func New(cfg *config.Config, options ...Option) (*VBoxInstance, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	hv := &VBoxInstance{
		cfg:             cfg,
		gate:            lock.NewManager(),
		sessions:        make(map[string]Session),
		open:            make(map[string]*openSession),
		drvKernelLoaded: true,
	}
	for _, opt := range options {
		if err := opt(hv); err != nil {
			return nil, err
		}
	}
	if hv.exec == nil {
		hv.exec = &commandRunner{cfg: cfg}
	}
	if hv.st == nil {
		dataDir, err := cfg.DataDirPath()
		if err != nil {
			return nil, err
		}
		st, err := store.NewBoltStore(filepath.Join(dataDir, sessionDBName))
		if err != nil {
			return nil, err
		}
		hv.st = st
	}
	if hv.dp == nil {
		hv.dp = fetch.NewHTTPProvider(nil)
	}
	return hv, nil
}

// Close aborts every open session and releases the session store.
func (hv *VBoxInstance) Close() error {
	hv.Abort()
	return hv.st.Close()
}

// run executes one VBoxManage invocation while holding key's command lock.
// Commands touching a particular machine pass its identifier; global queries
// share define.GenericKey.
func (hv *VBoxInstance) run(key, args string, cfg define.ExecConfig) (*define.ExecResult, error) {
	hv.gate.Lock(key)
	defer hv.gate.Unlock(key)
	return hv.exec.Exec(args, cfg)
}

// execConfig returns the per-command defaults from the configuration.
func (hv *VBoxInstance) execConfig() define.ExecConfig {
	return define.ExecConfig{Timeout: hv.cfg.Timeout()}
}

// Version reports the hypervisor version found by the last integrity probe.
func (hv *VBoxInstance) Version() define.Version {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.version
}

// IntegrityValid reports whether the last ValidateIntegrity run passed.
func (hv *VBoxInstance) IntegrityValid() bool {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.integrityValid
}

// GuestAdditionsISO returns the guest additions image path discovered by the
// last integrity probe, or "" when none was reported.
func (hv *VBoxInstance) GuestAdditionsISO() string {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.guestAdditions
}

// KernelDriverLoaded reports whether the last integrity probe saw the
// vboxdrv kernel module. It starts out true and only a probe that hits the
// dedicated driver warning flips it to false.
func (hv *VBoxInstance) KernelDriverLoaded() bool {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	return hv.drvKernelLoaded
}
