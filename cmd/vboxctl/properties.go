package main

import (
	"fmt"

	"github.com/containers/common/pkg/completion"
	"github.com/spf13/cobra"
)

var (
	propertiesDescription = `List every guest property published by a machine.`
	propertiesCmd         = &cobra.Command{
		Use:               "properties MACHINE",
		Args:              cobra.ExactArgs(1),
		Short:             "List machine guest properties",
		Long:              propertiesDescription,
		RunE:              propertiesRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl properties devbox`,
	}

	propertyDescription = `Read a single guest property from a machine.

Prints an empty line when the machine has no value set for the property,
matching the hypervisor's own behavior.`
	propertyCmd = &cobra.Command{
		Use:               "property MACHINE NAME",
		Args:              cobra.ExactArgs(2),
		Short:             "Read one machine guest property",
		Long:              propertyDescription,
		RunE:              propertyRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl property devbox /VirtualBox/GuestInfo/Net/0/V4/IP`,
	}
)

func init() {
	mainCmd.AddCommand(propertiesCmd)
	mainCmd.AddCommand(propertyCmd)
}

func propertiesRun(cmd *cobra.Command, args []string) error {
	props, err := hypervisor.GetAllProperties(args[0])
	if err != nil {
		return err
	}
	buf, err := json.MarshalIndent(props, "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}

func propertyRun(cmd *cobra.Command, args []string) error {
	value, err := hypervisor.GetProperty(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}
