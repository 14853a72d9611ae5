package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var force bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Writes a configuration file with the default values",
	Long:  `Writes a configuration file containing all default values, the file is replaced atomically`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "pace2go.yaml"
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists, use --force to replace it", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		data, err := configuration.DefaultConfigYaml()
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			return err
		}

		ui.Success("Configuration written to %s", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing file")
	Command.AddCommand(initCmd)
}
