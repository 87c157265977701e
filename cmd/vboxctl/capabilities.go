package main

import (
	"fmt"

	"github.com/containers/common/pkg/completion"
	"github.com/spf13/cobra"
)

var (
	capabilitiesDescription = `Report host virtualization capabilities and the hypervisor resource ceilings.`
	capabilitiesCmd         = &cobra.Command{
		Use:               "capabilities",
		Args:              cobra.NoArgs,
		Short:             "Report host capabilities",
		Long:              capabilitiesDescription,
		RunE:              capabilitiesRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl capabilities`,
	}
)

func init() {
	mainCmd.AddCommand(capabilitiesCmd)
}

func capabilitiesRun(cmd *cobra.Command, args []string) error {
	caps, err := hypervisor.GetCapabilities()
	if err != nil {
		return err
	}
	buf, err := json.MarshalIndent(caps, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
