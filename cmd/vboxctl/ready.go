package main

import (
	"fmt"
	"os"

	"github.com/containers/common/pkg/completion"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
	"github.com/spf13/cobra"
)

var (
	readyDescription = `Bring the hypervisor to a usable state.

The command validates the installation, offers to repair the kernel driver,
reconciles tracked sessions and installs the Oracle extension pack when it
is missing. Anything requiring consent is asked on the terminal, and runs
without a terminal decline automatically.`
	readyCmd = &cobra.Command{
		Use:               "ready [options]",
		Args:              cobra.NoArgs,
		Short:             "Prepare the hypervisor for use",
		Long:              readyDescription,
		RunE:              readyRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl ready --keys /etc/vbox/keys.toml`,
	}

	readyKeysPath string
)

func init() {
	mainCmd.AddCommand(readyCmd)

	flags := readyCmd.Flags()
	keysFlagName := "keys"
	flags.StringVar(&readyKeysPath, keysFlagName, "", "Path to the hypervisor configuration keys file")
	_ = readyCmd.RegisterFlagCompletionFunc(keysFlagName, completion.AutocompleteDefault)
}

func readyRun(cmd *cobra.Command, args []string) error {
	pf := progress.NewConsole(os.Stderr)
	ready := hypervisor.WaitTillReady(fileKeystore{path: readyKeysPath}, pf, newTerminalUI())
	pf.Wait()
	if !ready {
		return fmt.Errorf("hypervisor is not ready: %w", define.ErrExternal)
	}
	return nil
}
