package param

import (
	"net/http"

	"github.com/markusressel/pace2go/internal/device"
	"github.com/markusressel/pace2go/internal/pacing"
	"github.com/markusressel/pace2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [parameter]",
	Short: "Print the current value of one or all parameters",
	Long:  ``,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		defer pterm.EnableOutput()

		if len(args) <= 0 {
			var infos []device.ParameterInfo
			if err := call(http.MethodGet, "/parameter/", nil, &infos); err != nil {
				return err
			}
			pterm.EnableOutput()
			for _, info := range infos {
				ui.Printfln(formatInfo(info))
			}
			return nil
		}

		p, err := pacing.ParseParameter(args[0])
		if err != nil {
			return err
		}
		var info device.ParameterInfo
		if err := call(http.MethodGet, "/parameter/"+string(p)+"/", nil, &info); err != nil {
			return err
		}
		pterm.EnableOutput()
		ui.Printfln(formatInfo(info))
		return nil
	},
}

func init() {
	Command.AddCommand(getCmd)
}
