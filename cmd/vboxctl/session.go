package main

import (
	"fmt"
	"os"

	"github.com/containers/common/pkg/completion"
	"github.com/containers/common/pkg/report"
	"github.com/containers/libvbox/pkg/vboxmanage"
	"github.com/containers/libvbox/pkg/vboxmanage/define"
	"github.com/containers/libvbox/pkg/vboxmanage/progress"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	sessionDescription = `Manage the sessions tracking virtual machines on this host.`
	sessionCmd         = &cobra.Command{
		Use:   "session",
		Short: "Manage tracked sessions",
		Long:  sessionDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	sessionListDescription = `List every tracked session and the machine it is bound to.`
	sessionListCmd         = &cobra.Command{
		Use:               "list [options]",
		Aliases:           []string{"ls"},
		Args:              cobra.NoArgs,
		Short:             "List tracked sessions",
		Long:              sessionListDescription,
		RunE:              sessionList,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl session list`,
	}
	sessionListFormat string

	sessionOpenDescription = `Open a session, creating it when no session of that name exists yet.`
	sessionOpenCmd         = &cobra.Command{
		Use:               "open [options]",
		Args:              cobra.NoArgs,
		Short:             "Open or create a session",
		Long:              sessionOpenDescription,
		RunE:              sessionOpen,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl session open --name devbox --vboxid 1df3ec1d-2d6f-4c1a-9a12-b149632b5a9f`,
	}
	sessionOpenName   string
	sessionOpenVBoxID string

	sessionRmDescription = `Remove a tracked session by uuid, name or machine identifier.`
	sessionRmCmd         = &cobra.Command{
		Use:               "rm SESSION",
		Aliases:           []string{"remove"},
		Args:              cobra.ExactArgs(1),
		Short:             "Remove a tracked session",
		Long:              sessionRmDescription,
		RunE:              sessionRm,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl session rm devbox`,
	}

	sessionLoadDescription = `Reconcile the tracked sessions against the machines the hypervisor knows.

Sessions whose machine disappeared are removed.`
	sessionLoadCmd = &cobra.Command{
		Use:               "load",
		Args:              cobra.NoArgs,
		Short:             "Reconcile tracked sessions",
		Long:              sessionLoadDescription,
		RunE:              sessionLoad,
		ValidArgsFunction: completion.AutocompleteNone,
		Example:           `vboxctl session load`,
	}
)

func init() {
	mainCmd.AddCommand(sessionCmd)

	sessionCmd.AddCommand(sessionListCmd)
	flags := sessionListCmd.Flags()
	formatFlagName := "format"
	flags.StringVar(&sessionListFormat, formatFlagName, "", "Format output using JSON or a Go template")
	_ = sessionListCmd.RegisterFlagCompletionFunc(formatFlagName, completion.AutocompleteNone)

	sessionCmd.AddCommand(sessionOpenCmd)
	addSessionOpenFlags(sessionOpenCmd.Flags())

	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionLoadCmd)
}

func addSessionOpenFlags(flags *pflag.FlagSet) {
	flags.StringVar(&sessionOpenName, "name", "", "Name of the session to open or create")
	flags.StringVar(&sessionOpenVBoxID, "vboxid", "", "Machine identifier the session tracks")
}

type sessionRow struct {
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
	VBoxID string `json:"vboxid,omitempty"`
	State  string `json:"state"`
}

func sessionRowFor(sess vboxmanage.Session) sessionRow {
	return sessionRow{
		UUID:   sess.UUID(),
		Name:   sess.Parameters().Get("name", ""),
		VBoxID: sess.ExternalID(),
		State:  sess.State().String(),
	}
}

func sessionList(cmd *cobra.Command, args []string) error {
	if err := hypervisor.LoadSessions(nil); err != nil {
		return err
	}

	sessions := hypervisor.Sessions()
	rows := make([]sessionRow, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, sessionRowFor(sess))
	}

	rpt := report.New(os.Stdout, cmd.Name())
	defer rpt.Flush()

	if report.IsJSON(sessionListFormat) {
		buf, err := json.MarshalIndent(rows, "", "    ")
		if err == nil {
			fmt.Println(string(buf))
		}
		return err
	}

	var err error
	if sessionListFormat != "" {
		rpt, err = rpt.Parse(report.OriginUser, sessionListFormat)
	} else {
		rpt, err = rpt.Parse(report.OriginPodman,
			"{{range .}}{{.UUID}}\t{{.Name}}\t{{.State}}\t{{.VBoxID}}\n{{end -}}")
	}
	if err != nil {
		return err
	}

	if rpt.RenderHeaders {
		err = rpt.Execute([]map[string]string{{
			"UUID":   "UUID",
			"Name":   "Name",
			"State":  "State",
			"VBoxID": "VBoxID",
		}})
		if err != nil {
			return err
		}
	}
	return rpt.Execute(rows)
}

func sessionOpen(cmd *cobra.Command, args []string) error {
	if sessionOpenName == "" {
		return fmt.Errorf("a session name is required: %w", define.ErrInvalidArg)
	}
	if err := hypervisor.LoadSessions(nil); err != nil {
		return err
	}

	params := map[string]string{"name": sessionOpenName}
	if sessionOpenVBoxID != "" {
		params["vboxid"] = sessionOpenVBoxID
	}
	sess, err := hypervisor.SessionOpen(params, nil)
	if err != nil {
		return err
	}

	buf, err := json.MarshalIndent(sessionRowFor(sess), "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}

func sessionRm(cmd *cobra.Command, args []string) error {
	if err := hypervisor.LoadSessions(nil); err != nil {
		return err
	}

	sess := findSession(args[0])
	if sess == nil {
		return fmt.Errorf("session %q not found: %w", args[0], define.ErrNoSuchSession)
	}
	if err := hypervisor.SessionDelete(sess); err != nil {
		return err
	}
	fmt.Println(sess.UUID())
	return nil
}

func findSession(key string) vboxmanage.Session {
	for _, sess := range hypervisor.Sessions() {
		if sess.UUID() == key || sess.Parameters().Get("name", "") == key {
			return sess
		}
	}
	return hypervisor.SessionByExternalID(key)
}

func sessionLoad(cmd *cobra.Command, args []string) error {
	pf := progress.NewConsole(os.Stderr)
	err := hypervisor.LoadSessions(pf)
	pf.Wait()
	if err != nil {
		return err
	}
	fmt.Printf("%d sessions\n", len(hypervisor.Sessions()))
	return nil
}
