package vboxmanage

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/parse"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
)

// LoadSessions rebuilds the session registry from the persisted records and
// the hypervisor's actual machine list in four phases: import the records,
// enumerate live machines, prune records whose machine is gone, and demote
// open sessions whose registry entry went away. The registry lock is held
// for the whole pass, so nothing observes a half-reconciled registry.
func (hv *VBoxInstance) LoadSessions(pf progress.Reporter) error {
	pf = progress.OrDiscard(pf)
	pf.SetMax(4)

	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()

	pf.Doing("Loading sessions from disk")
	hv.sessions = make(map[string]Session)
	names, err := hv.st.Enumerate(sessionPrefix)
	if err != nil {
		pf.Fail("Unable to read the session store", err)
		return err
	}
	for _, recName := range names {
		rec, err := hv.st.RecordFor(recName)
		if err != nil {
			pf.Fail("Unable to read the session store", err)
			return err
		}
		if !rec.Contains(paramName) || !rec.Contains(paramUUID) {
			logrus.Warnf("Skipping malformed session record %s", recName)
			continue
		}
		sess := newSession(hv, rec)
		hv.sessions[sess.UUID()] = sess
	}

	// The machine listing decides whether the rest of the pass can run at
	// all, so it is fetched before the disk phase is declared finished.
	res, err := hv.run(define.GenericKey, "list vms", hv.execConfig())
	if err != nil {
		err = fmt.Errorf("listing machines: %v: %w", err, define.ErrQueryFailed)
		pf.Fail("Unable to load sessions", err)
		return err
	}
	if res.ExitCode != 0 {
		err = fmt.Errorf("listing machines: exit code %d: %w", res.ExitCode, define.ErrQueryFailed)
		pf.Fail("Unable to load sessions", err)
		return err
	}
	pf.Done("Sessions loaded")

	pf.Doing("Loading sessions from hypervisor")
	live := make(map[string]string)
	for _, line := range res.Stdout {
		name, id, ok := parse.BracketPair(line)
		if !ok {
			continue
		}
		if strings.Contains(name, "<inaccessible>") {
			logrus.Warnf("Ignoring inaccessible machine %s", id)
			continue
		}
		live[id] = name
	}
	pf.Done("Sessions loaded")

	// Prune sessions whose machine is gone. The delete path mutates the
	// registry, so the scan restarts until it makes a clean pass.
	pf.Doing("Cleaning-up expired sessions")
	for {
		removed := false
		for _, sess := range hv.sessions {
			if _, found := live[sess.ExternalID()]; found {
				continue
			}
			logrus.Infof("Cleaning up expired session %s", sess.UUID())
			if err := hv.sessionDeleteLocked(sess); err != nil {
				pf.Fail("Unable to clean up expired sessions", err)
				return err
			}
			removed = true
			break
		}
		if !removed {
			break
		}
	}
	pf.Done("Sessions cleaned-up")

	pf.Doing("Releasing old open sessions")
	for {
		released := false
		for id, open := range hv.open {
			if _, found := hv.sessions[id]; found {
				continue
			}
			logrus.Infof("Releasing stale open session %s", id)
			open.sess.NotifyDestroyed()
			delete(hv.open, id)
			released = true
			break
		}
		if !released {
			break
		}
	}
	pf.Done("Old open sessions released")
	return nil
}
