package main

import (
	"fmt"

	"github.com/containers/common/pkg/completion"
	"github.com/containers/libvbox/pkg/vboxmanage"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/spf13/cobra"
)

var (
	validateDescription = `Probe the VirtualBox installation and report whether it is usable.`
	validateCmd         = &cobra.Command{
		Use:               "validate",
		Args:              cobra.NoArgs,
		Short:             "Validate the VirtualBox installation",
		Long:              validateDescription,
		RunE:              validateRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl validate`,
	}
)

func init() {
	mainCmd.AddCommand(validateCmd)
}

type validateReport struct {
	Version        string `json:"version"`
	KernelDriver   bool   `json:"kernelDriver"`
	GuestAdditions string `json:"guestAdditionsISO,omitempty"`
}

func validateRun(cmd *cobra.Command, args []string) error {
	if !hypervisor.ValidateIntegrity() {
		return fmt.Errorf("VBoxManage is not usable: %w", define.ErrExternal)
	}

	rpt := validateReport{
		Version:        hypervisor.Version().String(),
		KernelDriver:   hypervisor.KernelDriverLoaded() && vboxmanage.KernelDriverPresent(),
		GuestAdditions: hypervisor.GuestAdditionsISO(),
	}
	buf, err := json.MarshalIndent(rpt, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
