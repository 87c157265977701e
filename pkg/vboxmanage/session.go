package vboxmanage

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/parse"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
	"github.com/containers/libvbox/pkg/vboxmanage/store"
)

// Parameter keys persisted in a session record.
const (
	paramUUID   = "uuid"
	paramName   = "name"
	paramVBoxID = "vboxid"
	paramState  = "state"
)

// sessionPrefix namespaces session records in the store.
const sessionPrefix = "vbsess-"

// Session is one tracked virtual machine lease. Sessions are created and
// handed out by the registry, which also reference counts them: Close must
// be called exactly once per successful SessionOpen.
type Session interface {
	// UUID is the internal, never-reused session identifier.
	UUID() string
	// ExternalID is the hypervisor's machine identifier, empty until a
	// machine has been bound to the session.
	ExternalID() string
	// Parameters exposes the persisted parameter record.
	Parameters() store.Record
	// State is the machine state as of the last refresh.
	State() define.SessionState
	// Open refreshes the state from the hypervisor and binds a progress
	// reporter for subsequent long operations.
	Open(pf progress.Reporter) error
	// Close releases one reference through the registry.
	Close() error
	// Abort drops in-flight feedback without touching persisted state.
	Abort()
	// NotifyDestroyed marks the backing machine as gone.
	NotifyDestroyed()
}

type vboxSession struct {
	hv  *VBoxInstance
	rec store.Record

	mu    sync.Mutex
	uuid  string
	state define.SessionState
	pf    progress.Reporter
}

// newSession wraps a parameter record into a live session. The internal
// uuid and the last persisted state are cached off the record up front.
func newSession(hv *VBoxInstance, rec store.Record) *vboxSession {
	return &vboxSession{
		hv:    hv,
		rec:   rec,
		uuid:  rec.Get(paramUUID, ""),
		state: define.ParseSessionState(rec.Get(paramState, "")),
	}
}

func (s *vboxSession) UUID() string {
	return s.uuid
}

func (s *vboxSession) ExternalID() string {
	return s.rec.Get(paramVBoxID, "")
}

func (s *vboxSession) Parameters() store.Record {
	return s.rec
}

func (s *vboxSession) State() define.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open binds a progress reporter and refreshes the machine state. A session
// without a bound machine is simply available; a bound machine that
// `showvminfo` no longer knows is missing. Neither is an error, only a
// failure to run the query is.
func (s *vboxSession) Open(pf progress.Reporter) error {
	s.mu.Lock()
	s.pf = progress.OrDiscard(pf)
	s.mu.Unlock()

	externalID := s.ExternalID()
	if externalID == "" {
		s.setState(define.SessionStateAvailable)
		return nil
	}

	res, err := s.hv.run(externalID, "showvminfo "+externalID, s.hv.execConfig())
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		s.setState(define.SessionStateMissing)
		return nil
	}
	info := parse.KeyValues(res.Stdout, ":")
	s.setState(stateFromInfo(info["State"]))
	return nil
}

func (s *vboxSession) Close() error {
	return s.hv.SessionClose(s)
}

func (s *vboxSession) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pf = nil
}

// NotifyDestroyed only flips the in-memory state. Callers use it while
// tearing the session down, when the record may already be gone.
func (s *vboxSession) NotifyDestroyed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = define.SessionStateMissing
}

func (s *vboxSession) setState(state define.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	if err := s.rec.Set(paramState, state.Field()); err != nil {
		logrus.Errorf("Persisting state of session %s: %v", s.uuid, err)
	}
}

// stateFromInfo maps the `showvminfo` State field, e.g.
// "running (since 2024-05-02T09:13:05.123000000)", onto a session state.
func stateFromInfo(value string) define.SessionState {
	switch {
	case strings.HasPrefix(value, "running"):
		return define.SessionStateRunning
	case strings.HasPrefix(value, "paused"):
		return define.SessionStatePaused
	case strings.HasPrefix(value, "saved"), strings.HasPrefix(value, "saving"):
		return define.SessionStateSaved
	}
	return define.SessionStatePowerOff
}
