package cmd

import (
	"fmt"
	"strconv"

	"github.com/markusressel/pace2go/cmd/global"
	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/encoders"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect gpio chips",
	Long:  `Detects all gpio chips and prints their lines, marking the ones used by the configured encoders and buttons`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration.ReadConfigFile()

		chips, err := encoders.DetectChips()
		if err != nil {
			return err
		}
		if len(chips) <= 0 {
			ui.Warning("No gpio chips found")
			return nil
		}

		assigned := configuration.HardwareLines(configuration.CurrentConfig.Hardware)
		byOffset := map[int]string{}
		for name, offset := range assigned {
			byOffset[offset] = name
		}

		for _, chip := range chips {
			ui.Printfln("> %s (%s)", chip.Name, chip.Label)

			var rows [][]string
			for _, line := range chip.Lines {
				role := ""
				if chip.Name == configuration.CurrentConfig.Hardware.Chip {
					role = byOffset[line.Offset]
				}
				rows = append(rows, []string{
					"", strconv.Itoa(line.Offset), line.Name, line.Consumer, fmt.Sprintf("%v", line.Used), role,
				})
			}

			tab := table.Table{
				Headers: []string{"Lines  ", "Offset", "Name", "Consumer", "Used", "Role"},
				Rows:    rows,
			}
			tableString, err := global.RenderTable(tab)
			if err != nil {
				return err
			}
			ui.Printfln(tableString)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
