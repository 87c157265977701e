package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/containers/common/pkg/completion"
	"github.com/containers/common/pkg/report"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var (
	disksDescription = `List the virtual disk images registered with the hypervisor.`
	disksCmd         = &cobra.Command{
		Use:               "disks [options]",
		Args:              cobra.NoArgs,
		Short:             "List registered virtual disks",
		Long:              disksDescription,
		RunE:              disksRun,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl disks --format json`,
	}

	disksFormat string
)

func init() {
	mainCmd.AddCommand(disksCmd)

	flags := disksCmd.Flags()
	formatFlagName := "format"
	flags.StringVar(&disksFormat, formatFlagName, "", "Format output using JSON or a Go template")
	_ = disksCmd.RegisterFlagCompletionFunc(formatFlagName, completion.AutocompleteNone)
}

type diskRow struct {
	UUID     string `json:"uuid"`
	State    string `json:"state"`
	Capacity string `json:"capacity"`
	Location string `json:"location"`
}

func disksRun(cmd *cobra.Command, args []string) error {
	disks, err := hypervisor.GetDiskList()
	if err != nil {
		return err
	}

	rows := make([]diskRow, 0, len(disks))
	for _, disk := range disks {
		rows = append(rows, diskRow{
			UUID:     disk["UUID"],
			State:    disk["State"],
			Capacity: prettyCapacity(disk["Capacity"]),
			Location: disk["Location"],
		})
	}

	rpt := report.New(os.Stdout, cmd.Name())
	defer rpt.Flush()

	if report.IsJSON(disksFormat) {
		buf, err := json.MarshalIndent(rows, "", "    ")
		if err == nil {
			fmt.Println(string(buf))
		}
		return err
	}

	if disksFormat != "" {
		rpt, err = rpt.Parse(report.OriginUser, disksFormat)
	} else {
		rpt, err = rpt.Parse(report.OriginPodman,
			"{{range .}}{{.UUID}}\t{{.State}}\t{{.Capacity}}\t{{.Location}}\n{{end -}}")
	}
	if err != nil {
		return err
	}

	if rpt.RenderHeaders {
		err = rpt.Execute([]map[string]string{{
			"UUID":     "UUID",
			"State":    "State",
			"Capacity": "Capacity",
			"Location": "Location",
		}})
		if err != nil {
			return err
		}
	}
	return rpt.Execute(rows)
}

// prettyCapacity converts the "51200 MBytes" form reported by the
// hypervisor into a human readable size. Values it cannot parse pass
// through untouched.
func prettyCapacity(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return raw
	}
	mb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return raw
	}
	return units.HumanSize(mb * units.MiB)
}
