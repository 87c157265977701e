package main

import (
	"context"

	"github.com/BurntSushi/toml"
	"github.com/containers/libvbox/pkg/vboxmanage/fetch"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
	"github.com/containers/libvbox/pkg/vboxmanage/store"
	"github.com/pkg/errors"
)

// fileKeystore feeds the installer from a local TOML file instead of a
// remote registry. The file maps configuration keys to values, letting a
// deployment pin exactly which pack may be fetched.
type fileKeystore struct {
	path string
}

func (k fileKeystore) DownloadHypervisorConfig(ctx context.Context, dp fetch.DownloadProvider, out store.Record, pf progress.Reporter) error {
	pf = progress.OrDiscard(pf)

	if k.path == "" {
		err := errors.New("no hypervisor configuration source, pass --keys")
		pf.Fail("No configuration source", err)
		return err
	}

	keys := map[string]string{}
	if _, err := toml.DecodeFile(k.path, &keys); err != nil {
		err = errors.Wrapf(err, "reading hypervisor configuration %s", k.path)
		pf.Fail("Unable to read the configuration file", err)
		return err
	}

	for key, value := range keys {
		if err := out.Set(key, value); err != nil {
			pf.Fail("Unable to stage the configuration", err)
			return err
		}
	}
	pf.Complete("Configuration ready")
	return nil
}
