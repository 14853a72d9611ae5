package cmd

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/persistence"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var historyParameter string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Plot the recorded history of a parameter",
	Long:  `Plots the values the daemon recorded for a parameter, oldest first`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		configuration.ReadConfigFile()
		pterm.EnableOutput()

		p, err := pacing.ParseParameter(historyParameter)
		if err != nil {
			return err
		}
		def := pacing.MustLookup(p)

		history, err := persistence.NewPersistence(configuration.CurrentConfig.DbPath).LoadHistory()
		if err != nil {
			return err
		}
		if len(history) <= 0 {
			ui.Printfln("No history data yet...")
			return nil
		}

		values := make([]float64, 0, len(history))
		for _, snapshot := range history {
			values = append(values, snapshot.Value(p))
		}

		first := history[0].LastUpdate.Format("15:04:05")
		last := history[len(history)-1].LastUpdate.Format("15:04:05")
		caption := fmt.Sprintf("%s [%s] %s - %s", p, def.Unit, first, last)
		graph := asciigraph.Plot(values,
			asciigraph.Height(15),
			asciigraph.Width(100),
			asciigraph.LowerBound(def.Limits.Min),
			asciigraph.UpperBound(def.Limits.Max),
			asciigraph.Caption(caption),
		)
		ui.Printfln(graph)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyParameter, "parameter", "p", string(pacing.Rate), "Parameter to plot, one of: rate | a_output | v_output | a_sensitivity | v_sensitivity")
	rootCmd.AddCommand(historyCmd)
}
