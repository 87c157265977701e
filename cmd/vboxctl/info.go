package main

import (
	"fmt"
	"sync"

	"github.com/containers/common/pkg/completion"
	"github.com/containers/libvbox/pkg/errorhandling"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	infoDescription = `Show the hypervisor view of one or more machines.

Machines are queried concurrently. Details for the machines that could be
queried are printed even when some of them fail.`
	infoCmd = &cobra.Command{
		Use:               "info MACHINE [MACHINE...]",
		Args:              cobra.MinimumNArgs(1),
		Short:             "Show machine details",
		Long:              infoDescription,
		RunE:              infoRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl info 1df3ec1d-2d6f-4c1a-9a12-b149632b5a9f`,
	}
)

func init() {
	mainCmd.AddCommand(infoCmd)
}

func infoRun(cmd *cobra.Command, args []string) error {
	var (
		mu      sync.Mutex
		errs    []error
		results = make(map[string]map[string]string, len(args))
	)

	g := new(errgroup.Group)
	g.SetLimit(4)
	for _, id := range args {
		id := id // keep per-iteration capture under the go1.21 toolchain
		g.Go(func() error {
			info, err := hypervisor.GetMachineInfo(id, 0)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			results[id] = info
			return nil
		})
	}
	_ = g.Wait()

	if len(results) > 0 {
		buf, err := json.MarshalIndent(results, "", "    ")
		if err != nil {
			return err
		}
		fmt.Println(string(buf))
	}
	return errorhandling.JoinErrors(errs)
}
