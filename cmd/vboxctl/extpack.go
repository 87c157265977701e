package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/containers/common/pkg/completion"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
	"github.com/spf13/cobra"
)

var (
	extpackDescription = `Manage the Oracle VM VirtualBox Extension Pack.`
	extpackCmd         = &cobra.Command{
		Use:   "extpack",
		Short: "Manage the extension pack",
		Long:  extpackDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	extpackInstallDescription = `Download, verify and install the extension pack.

The download location and the expected checksum come from the hypervisor
configuration keys. A pack that fails the checksum is discarded.`
	extpackInstallCmd = &cobra.Command{
		Use:               "install [options]",
		Args:              cobra.NoArgs,
		Short:             "Install the extension pack",
		Long:              extpackInstallDescription,
		RunE:              extpackInstall,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl extpack install --keys /etc/vbox/keys.toml`,
	}
	extpackKeysPath string

	extpackStatusDescription = `Report whether the extension pack is installed.`
	extpackStatusCmd         = &cobra.Command{
		Use:               "status",
		Args:              cobra.NoArgs,
		Short:             "Report extension pack state",
		Long:              extpackStatusDescription,
		RunE:              extpackStatus,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl extpack status`,
	}
)

func init() {
	mainCmd.AddCommand(extpackCmd)

	extpackCmd.AddCommand(extpackInstallCmd)
	flags := extpackInstallCmd.Flags()
	keysFlagName := "keys"
	flags.StringVar(&extpackKeysPath, keysFlagName, "", "Path to the hypervisor configuration keys file")
	_ = extpackInstallCmd.RegisterFlagCompletionFunc(keysFlagName, completion.AutocompleteDefault)

	extpackCmd.AddCommand(extpackStatusCmd)
}

func extpackInstall(cmd *cobra.Command, args []string) error {
	pf := progress.NewConsole(os.Stderr)
	err := hypervisor.InstallExtPack(fileKeystore{path: extpackKeysPath}, nil, pf)
	pf.Wait()
	if errors.Is(err, define.ErrAlreadyExists) {
		fmt.Println("already installed")
		return nil
	}
	return err
}

func extpackStatus(cmd *cobra.Command, args []string) error {
	if hypervisor.HasExtPack() {
		fmt.Println("installed")
	} else {
		fmt.Println("not installed")
	}
	return nil
}
