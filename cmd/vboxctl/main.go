package main

import (
	"fmt"
	"os"

	"github.com/containers/libvbox/pkg/vboxmanage"
	"github.com/containers/libvbox/pkg/vboxmanage/config"
	"github.com/containers/libvbox/version"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	mainCmd = &cobra.Command{
		Use:     "vboxctl",
		Long:    "Inspect and manage a local VirtualBox installation through VBoxManage",
		Version: version.Version.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return before()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return after()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	json = jsoniter.ConfigCompatibleWithStandardLibrary

	globalLogLevel   string
	globalConfigPath string
	globalTimeout    uint
	hypervisor       *vboxmanage.VBoxInstance
)

func init() {
	fl := mainCmd.PersistentFlags()
	fl.StringVar(&globalLogLevel, "log-level", "warn", "logging level")
	fl.StringVar(&globalConfigPath, "config", os.Getenv("VBOXCTL_CONFIG"), "path to the configuration file (VBOXCTL_CONFIG)")
	fl.UintVar(&globalTimeout, "timeout", 0, "VBoxManage execution timeout in seconds")
}

func before() error {
	if globalLogLevel != "" {
		parsedLogLevel, err := logrus.ParseLevel(globalLogLevel)
		if err != nil {
			return fmt.Errorf("parsing log level %q: %w", globalLogLevel, err)
		}
		logrus.SetLevel(parsedLogLevel)
	}

	cfg := config.Default()
	if globalConfigPath != "" {
		loaded, err := config.Load(globalConfigPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
	}
	if globalTimeout > 0 {
		cfg.ExecTimeout = globalTimeout
	}

	hv, err := vboxmanage.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing hypervisor control: %w", err)
	}
	hypervisor = hv
	return nil
}

func after() error {
	if hypervisor == nil {
		return nil
	}
	return hypervisor.Close()
}

func main() {
	exitCode := 1
	if err := mainCmd.Execute(); err != nil {
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	} else {
		exitCode = 0
	}
	os.Exit(exitCode)
}
