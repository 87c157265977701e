// Package lock serializes hypervisor commands that touch the same
// resource. VBoxManage tolerates concurrent reads, but two mutating
// commands against one VM interleave badly, so every command declares a
// key and commands sharing a key run one at a time.
package lock

import (
	"github.com/moby/locker"
	"github.com/sirupsen/logrus"
)

// Manager hands out named mutexes. The zero value is not usable; call
// NewManager.
type Manager struct {
	locks *locker.Locker
}

// NewManager returns a Manager with no locks held.
func NewManager() *Manager {
	return &Manager{locks: locker.New()}
}

// Lock blocks until the named lock is acquired. Locks are created on
// first use.
func (m *Manager) Lock(key string) {
	m.locks.Lock(key)
}

// Unlock releases the named lock. Unlocking a key that is not held is a
// programming error and is logged rather than propagated, since callers
// invariably unlock from a defer.
func (m *Manager) Unlock(key string) {
	if err := m.locks.Unlock(key); err != nil {
		logrus.Errorf("Releasing command lock %q: %v", key, err)
	}
}
