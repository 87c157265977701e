package vboxmanage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/containers/libvbox/pkg/errorhandling"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/fetch"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
	"github.com/containers/libvbox/pkg/vboxmanage/store"
)

// extPackName is the marker `list extpacks` prints for the Oracle pack.
const extPackName = "Oracle VM VirtualBox Extension Pack"

// The installer may sit on an EULA window, so it gets far more time than a
// regular query.
const extPackInstallTimeout = 5 * time.Minute

// Keystore fetches the signed hypervisor configuration, verifies its trust
// chain, and fills out with the key/value payload. Verification failures
// are reported as define.ErrNotValidated or define.ErrNotTrusted.
type Keystore interface {
	DownloadHypervisorConfig(ctx context.Context, dp fetch.DownloadProvider, out store.Record, pf progress.Reporter) error
}

// HasExtPack reports whether the Oracle extension pack is installed.
func (hv *VBoxInstance) HasExtPack() bool {
	res, err := hv.run(define.GenericKey, "list extpacks", hv.execConfig())
	if err != nil {
		logrus.Debugf("Unable to list extension packs: %v", err)
		return false
	}
	for _, line := range res.Stdout {
		if strings.Contains(line, extPackName) {
			return true
		}
	}
	return false
}

// InstallExtPack downloads and installs the Oracle extension pack matching
// the probed hypervisor version. The artifact URL and its checksum come
// from the keystore-verified hypervisor configuration; an artifact that
// fails its checksum is never handed to VBoxManage and the scratch file is
// removed either way. Returns define.ErrAlreadyExists, without any work,
// when the pack is already installed. A nil dp falls back to the instance's
// download provider.
func (hv *VBoxInstance) InstallExtPack(keystore Keystore, dp fetch.DownloadProvider, pf progress.Reporter) error {
	pf = progress.OrDiscard(pf)
	if dp == nil {
		dp = hv.dp
	}
	ctx := context.Background()

	pf.SetMax(5)
	pf.Doing("Preparing for extension pack installation")
	if hv.HasExtPack() {
		pf.Complete("Already installed")
		return define.ErrAlreadyExists
	}

	cfgStore := store.NewMemoryStore()
	rec, err := cfgStore.RecordFor("hypervisor-config")
	if err != nil {
		pf.Fail("Unable to fetch hypervisor configuration", err)
		return err
	}
	if err := keystore.DownloadHypervisorConfig(ctx, dp, rec, pf.Begin("Downloading hypervisor configuration")); err != nil {
		if errors.Is(err, define.ErrNotValidated) || errors.Is(err, define.ErrNotTrusted) {
			pf.Fail("Hypervisor configuration integrity check failed", err)
			return err
		}
		pf.Fail("Unable to fetch hypervisor configuration", err)
		return fmt.Errorf("fetching hypervisor configuration: %w", err)
	}

	version := hv.Version()
	packURL := rec.Get(fmt.Sprintf("vbox-%s-extpack", version), "")
	if packURL == "" {
		err := fmt.Errorf("no extension pack for version %s: %w", version, define.ErrExternal)
		pf.Fail("No extensions package URL found", err)
		return err
	}
	checksum := rec.Get(fmt.Sprintf("vbox-%s-extpackChecksum", version), "")
	if checksum == "" {
		err := fmt.Errorf("no extension pack checksum for version %s: %w", version, define.ErrExternal)
		pf.Fail("No extensions package checksum found", err)
		return err
	}

	scratch, err := securejoin.SecureJoin(hv.cfg.TmpDirPath(), path.Base(packURL))
	if err != nil {
		pf.Fail("Unable to download extension pack", err)
		return err
	}
	if err := dp.DownloadFile(ctx, packURL, scratch, pf.Begin("Downloading extension pack")); err != nil {
		pf.Fail("Unable to download extension pack", err)
		return err
	}
	scratchRemoved := false
	removeScratch := func() {
		if scratchRemoved {
			return
		}
		scratchRemoved = true
		if err := os.Remove(scratch); err != nil && !os.IsNotExist(err) {
			logrus.Errorf("Removing scratch file %s: %v", scratch, err)
		}
	}
	defer removeScratch()

	pf.Doing("Validating extension pack integrity")
	actual, err := fileChecksum(scratch)
	if err != nil {
		pf.Fail("Extension pack integrity was not validated", err)
		return err
	}
	if actual != checksum {
		err := fmt.Errorf("extension pack checksum mismatch: %w", define.ErrNotValidated)
		pf.Fail("Extension pack integrity was not validated", err)
		return err
	}
	pf.Done("Extension pack integrity validated")

	pf.Doing("Installing extension pack")
	pf.MarkLengthy(true)
	cfg := hv.execConfig()
	cfg.GUI = true
	cfg.Timeout = extPackInstallTimeout
	res, err := hv.run(define.GenericKey, fmt.Sprintf("extpack install %q", scratch), cfg)
	if err != nil || res.ExitCode != 0 {
		pf.MarkLengthy(false)
		if err != nil {
			err = fmt.Errorf("installing extension pack: %v: %w", err, define.ErrExternal)
		} else {
			err = fmt.Errorf("installing extension pack: exit code %d: %w", res.ExitCode, define.ErrExternal)
		}
		pf.Fail("Extension pack failed to install", err)
		return err
	}
	pf.MarkLengthy(false)
	pf.Done("Installed extension pack")

	pf.Doing("Cleaning-up")
	removeScratch()
	pf.Done("Cleaned-up")

	pf.Complete("Extension pack installed successfully")
	return nil
}

func fileChecksum(name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer errorhandling.CloseQuiet(f)
	dgst, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", err
	}
	return dgst.Encoded(), nil
}
