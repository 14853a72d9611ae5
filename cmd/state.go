package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/markusressel/pace2go/cmd/global"
	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/persistence"
	"github.com/markusressel/pace2go/internal/store"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJson  = "json"
	outputYaml  = "yaml"
)

var outputFormat string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the last saved device state",
	Long:  `Prints the device state the daemon last saved to its database`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		configuration.ReadConfigFile()
		pterm.EnableOutput()

		p := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		snapshot, err := p.LoadState()
		if errors.Is(err, os.ErrNotExist) {
			ui.Warning("No saved device state yet")
			return nil
		}
		if err != nil {
			return err
		}
		return printSnapshot(snapshot, outputFormat)
	},
}

func init() {
	stateCmd.Flags().StringVarP(&outputFormat, "output", "o", outputTable, "Output format, one of: table | json | yaml")
	rootCmd.AddCommand(stateCmd)
}

func printSnapshot(snapshot store.Snapshot, format string) error {
	switch format {
	case outputJson:
		data, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return err
		}
		ui.Printfln(string(data))
	case outputYaml:
		data, err := yaml.Marshal(snapshot)
		if err != nil {
			return err
		}
		ui.Printf(string(data))
	case outputTable:
		tableString, err := global.RenderTable(table.Table{
			Headers: []string{"", ""},
			Rows: [][]string{
				{"Mode", fmt.Sprintf("%s (%d)", snapshot.ModeName, snapshot.Mode)},
				{"Rate", fmt.Sprintf("%d ppm", snapshot.Rate)},
				{"A. Output", fmt.Sprintf("%.1f mA", snapshot.AOutput)},
				{"V. Output", fmt.Sprintf("%.1f mA", snapshot.VOutput)},
				{"A. Sensitivity", formatSensitivity(snapshot.ASensitivity)},
				{"V. Sensitivity", formatSensitivity(snapshot.VSensitivity)},
				{"Active control", string(snapshot.ActiveControl)},
				{"Locked", strconv.FormatBool(snapshot.Locked)},
				{"Emergency", strconv.FormatBool(snapshot.Emergency)},
				{"Last update", fmt.Sprintf("%s (%s)", snapshot.LastUpdate.Format("2006-01-02 15:04:05"), snapshot.LastUpdateSource)},
				{"Revision", strconv.FormatUint(snapshot.Revision, 10)},
			},
		})
		if err != nil {
			return err
		}
		ui.Printfln(tableString)
	default:
		return fmt.Errorf("unknown output format '%s', use one of: %s | %s | %s", format, outputTable, outputJson, outputYaml)
	}
	return nil
}

func formatSensitivity(value float64) string {
	if value == pacing.AsyncValue {
		return "ASYNC"
	}
	return fmt.Sprintf("%.1f mV", value)
}
