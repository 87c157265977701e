package vboxmanage

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
)

// openSession tracks the live references to a session handed out by
// SessionOpen.
type openSession struct {
	sess Session
	refs int
}

// AllocateSession creates a brand new session with a fresh internal uuid
// and persists its record. The uuid is never reused, even after deletion.
func (hv *VBoxInstance) AllocateSession() (Session, error) {
	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()
	return hv.allocateSessionLocked()
}

func (hv *VBoxInstance) allocateSessionLocked() (*vboxSession, error) {
	id := uuid.NewString()
	rec, err := hv.st.RecordFor(sessionPrefix + id)
	if err != nil {
		return nil, err
	}
	if err := rec.Set(paramUUID, id); err != nil {
		return nil, err
	}
	if err := rec.Set(paramState, define.SessionStateAvailable.Field()); err != nil {
		return nil, err
	}
	sess := newSession(hv, rec)
	hv.sessions[id] = sess
	logrus.Debugf("Allocated session %s", id)
	return sess, nil
}

// SessionByExternalID returns the session bound to the given hypervisor
// machine identifier, or nil when no session tracks it.
func (hv *VBoxInstance) SessionByExternalID(id string) Session {
	if id == "" {
		return nil
	}
	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()
	for _, sess := range hv.sessions {
		if sess.ExternalID() == id {
			return sess
		}
	}
	return nil
}

// Sessions returns a snapshot of every registered session.
func (hv *VBoxInstance) Sessions() []Session {
	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()
	out := make([]Session, 0, len(hv.sessions))
	for _, sess := range hv.sessions {
		out = append(out, sess)
	}
	return out
}

// SessionOpen leases a session identified by the "name" parameter,
// allocating one if the name is new, records the caller's parameters and
// refreshes the machine state. Every successful call takes one reference
// that SessionClose releases.
func (hv *VBoxInstance) SessionOpen(params map[string]string, pf progress.Reporter) (Session, error) {
	name := params[paramName]
	if name == "" {
		return nil, fmt.Errorf("session parameters carry no name: %w", define.ErrInvalidArg)
	}

	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()

	sess := hv.findByNameLocked(name)
	if sess == nil {
		allocated, err := hv.allocateSessionLocked()
		if err != nil {
			return nil, err
		}
		sess = allocated
	}

	// Record the caller's parameters. The internal uuid is not theirs to
	// change.
	rec := sess.Parameters()
	for key, value := range params {
		if key == paramUUID {
			continue
		}
		if err := rec.Set(key, value); err != nil {
			return nil, err
		}
	}

	open := hv.open[sess.UUID()]
	if open == nil {
		open = &openSession{sess: sess}
		hv.open[sess.UUID()] = open
	}
	open.refs++

	if err := sess.Open(pf); err != nil {
		open.refs--
		if open.refs <= 0 {
			delete(hv.open, sess.UUID())
		}
		return nil, err
	}
	return sess, nil
}

func (hv *VBoxInstance) findByNameLocked(name string) Session {
	for _, sess := range hv.sessions {
		if sess.Parameters().Get(paramName, "") == name {
			return sess
		}
	}
	return nil
}

// SessionClose releases one reference. When the last reference goes the
// session's in-flight feedback is aborted, and a session whose machine
// vanished is deleted outright.
func (hv *VBoxInstance) SessionClose(sess Session) error {
	if sess == nil {
		return define.ErrInvalidArg
	}
	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()

	open := hv.open[sess.UUID()]
	if open == nil {
		return fmt.Errorf("session %s is not open: %w", sess.UUID(), define.ErrNoSuchSession)
	}
	open.refs--
	if open.refs > 0 {
		return nil
	}

	sess.Abort()
	delete(hv.open, sess.UUID())
	if sess.State() == define.SessionStateMissing {
		return hv.sessionDeleteLocked(sess)
	}
	return nil
}

// SessionDelete removes a session from the registry together with its
// persisted record. Deleting an unknown session is a no-op.
func (hv *VBoxInstance) SessionDelete(sess Session) error {
	if sess == nil {
		return define.ErrInvalidArg
	}
	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()
	return hv.sessionDeleteLocked(sess)
}

func (hv *VBoxInstance) sessionDeleteLocked(sess Session) error {
	id := sess.UUID()
	if _, found := hv.sessions[id]; !found {
		return nil
	}
	// Clear the record first. If the store refuses, the registry keeps the
	// session and the caller can retry.
	if err := sess.Parameters().Clear(); err != nil {
		return err
	}
	// Demote the object in the open set. After a reconciliation it can be
	// an older incarnation than sess, and that is the one callers hold.
	if open, isOpen := hv.open[id]; isOpen {
		open.sess.NotifyDestroyed()
		delete(hv.open, id)
	}
	delete(hv.sessions, id)
	logrus.Debugf("Deleted session %s", id)
	return nil
}

// Abort drops every open session and empties the registry without touching
// the store. Meant for shutdown paths where the persisted session state
// must survive as-is.
func (hv *VBoxInstance) Abort() {
	hv.registryMu.Lock()
	defer hv.registryMu.Unlock()
	for id, open := range hv.open {
		logrus.Debugf("Aborting open session %s", id)
		open.sess.Abort()
	}
	hv.open = make(map[string]*openSession)
	hv.sessions = make(map[string]Session)
}
